// Package hookmodule 收纳随二进制发布的内置 hook。
//
// 模块作者需要：
//  1. 在 internal/hookmodule/<name>/ 目录下实现 OnRequest / OnResponse 中的任意一个或两个；
//  2. 在 init() 中通过 hooks.MustRegister 以 --handler 可用的名称注册；
//  3. 在根目录 modules.go 中以空白导入启用该模块。
//
// 需要在不重新编译的情况下扩展时，请改用 Go plugin（--handler path/to/handler.so）。
package hookmodule
