package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func loadArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := NewFlagSet("dproxy-test")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return Load(fs)
}
