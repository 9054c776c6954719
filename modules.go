package main

// 内置 hook 模块在 init() 中注册，--handler 可以直接按名称引用。
import (
	_ "github.com/dproxy/dproxy/internal/hookmodule/nocache"
	_ "github.com/dproxy/dproxy/internal/hookmodule/rewritelinks"
	_ "github.com/dproxy/dproxy/internal/hookmodule/trace"
)
