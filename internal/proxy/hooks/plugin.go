package hooks

import (
	"fmt"
	"net/http"
	"plugin"
)

// CapabilityError 表示插件导出了同名符号，但其类型不可调用。
type CapabilityError struct {
	Symbol string
	Type   string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("handler 导出的 %s 不可调用（类型 %s）", e.Symbol, e.Type)
}

// symbolLookup 与 (*plugin.Plugin).Lookup 签名一致，便于测试注入。
type symbolLookup func(name string) (plugin.Symbol, error)

// loadPlugin 打开 Go plugin 文件并读取可选的 OnRequest/OnResponse 导出符号。
// 插件需要与本程序使用同一版本的 hooks 包编译。
func loadPlugin(path string) (Hooks, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return Hooks{}, fmt.Errorf("加载 handler 插件失败: %w", err)
	}
	return hooksFromSymbols(p.Lookup)
}

func hooksFromSymbols(lookup symbolLookup) (Hooks, error) {
	var h Hooks

	if sym, err := lookup("OnRequest"); err == nil {
		fn, ok := asOnRequest(sym)
		if !ok {
			return Hooks{}, &CapabilityError{Symbol: "OnRequest", Type: fmt.Sprintf("%T", sym)}
		}
		h.OnRequest = fn
	}

	if sym, err := lookup("OnResponse"); err == nil {
		fn, ok := asOnResponse(sym)
		if !ok {
			return Hooks{}, &CapabilityError{Symbol: "OnResponse", Type: fmt.Sprintf("%T", sym)}
		}
		h.OnResponse = fn
	}

	return h, nil
}

// 导出函数的符号是函数本身，导出变量的符号是指向变量的指针。
func asOnRequest(sym plugin.Symbol) (OnRequestFunc, bool) {
	switch fn := sym.(type) {
	case func(*Exchange, *http.Request) error:
		return fn, fn != nil
	case *OnRequestFunc:
		if fn == nil || *fn == nil {
			return nil, false
		}
		return *fn, true
	default:
		return nil, false
	}
}

func asOnResponse(sym plugin.Symbol) (OnResponseFunc, bool) {
	switch fn := sym.(type) {
	case func(*Exchange, *http.Request, *http.Response) error:
		return fn, fn != nil
	case *OnResponseFunc:
		if fn == nil || *fn == nil {
			return nil, false
		}
		return *fn, true
	default:
		return nil, false
	}
}
