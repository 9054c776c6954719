package hooks

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Load 在启动阶段解析一次 --handler：空值表示不加载 hook；以 .so 结尾或包含路径分隔符时
// 作为 Go plugin 打开，否则按名称从注册表查找。任何错误都应终止启动。
func Load(ref string) (*Adapter, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return NewAdapter("", Hooks{}), nil
	}

	if isPluginPath(ref) {
		h, err := loadPlugin(ref)
		if err != nil {
			return nil, err
		}
		return NewAdapter(filepath.Base(ref), h), nil
	}

	h, ok := Fetch(ref)
	if !ok {
		return nil, fmt.Errorf("未注册的 handler: %s（可用: %s）", ref, strings.Join(Names(), ", "))
	}
	return NewAdapter(normalizeKey(ref), h), nil
}

func isPluginPath(ref string) bool {
	return strings.HasSuffix(ref, ".so") || strings.ContainsRune(ref, filepath.Separator)
}
