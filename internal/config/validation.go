package config

import (
	"errors"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return newFieldError("port", "必须在 1-65535")
	}
	if err := validateUpstream(c.Upstream); err != nil {
		return err
	}
	if c.StaticRoot == "" {
		return newFieldError("dir", "不能为空")
	}
	if c.UpstreamTimeout <= 0 {
		return newFieldError("timeout", "必须大于 0")
	}

	for i, entry := range c.Mappings {
		if strings.TrimSpace(entry.Remote) == "" {
			return newFieldError(mappingField(i, "remote"), "不能为空")
		}
		if !doublestar.ValidatePattern(strings.TrimPrefix(entry.Remote, "/")) {
			return newFieldError(mappingField(i, "remote"), "glob 不合法: "+entry.Remote)
		}
		if strings.TrimSpace(entry.Local) == "" {
			return newFieldError(mappingField(i, "local"), "不能为空")
		}
	}

	return nil
}

func validateUpstream(u Upstream) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return newFieldError("remote_host", "仅支持 http/https")
	}
	if u.Host == "" {
		return newFieldError("remote_host", "不能为空")
	}
	if u.Port <= 0 || u.Port > 65535 {
		return newFieldError("remote_host", "端口必须在 1-65535")
	}
	return nil
}
