package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// LogMask 是按位组合的日志开关，与 -l/--logLevel 参数一一对应。
type LogMask uint8

const (
	LogAll LogMask = 1 << iota
	LogMessages
	LogBypass
	LogMap
	LogLocal
	LogRemote
)

// DefaultLogMask 默认输出除 LOCAL 之外的全部日志（46）。
const DefaultLogMask = LogMessages | LogBypass | LogMap | LogRemote

// Normalize 仅在掩码恰好为 1 时展开为全部具体开关。
func (m LogMask) Normalize() LogMask {
	if m == LogAll {
		return LogMessages | LogBypass | LogMap | LogLocal | LogRemote
	}
	return m
}

// Has 判断某个日志开关是否开启。
func (m LogMask) Has(flag LogMask) bool {
	return m.Normalize()&flag == flag
}

// Upstream 描述唯一的上游目标。
type Upstream struct {
	Scheme string
	Host   string
	Port   int
}

// Address 返回 host:port 形式的拨号地址。
func (u Upstream) Address() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}

// URL 返回上游根地址，调用方可以安全修改返回值。
func (u Upstream) URL() *url.URL {
	return &url.URL{Scheme: u.Scheme, Host: u.Address()}
}

// Secure 表示上游是否走 https。
func (u Upstream) Secure() bool {
	return u.Scheme == "https"
}

func (u Upstream) String() string {
	return u.Host + ":" + strconv.Itoa(u.Port)
}

// MappingEntry 将远端路径（glob）映射到本地文件，声明顺序即优先级。
type MappingEntry struct {
	Remote string `mapstructure:"remote"`
	Local  string `mapstructure:"local"`
}

// ParseMappingEntry 解析 "<remote>,<local>" 形式的参数。
func ParseMappingEntry(raw string) (MappingEntry, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return MappingEntry{}, fmt.Errorf("%w: 非法参数 %s，需要以逗号分隔的 2 个值，实际得到 %d 个", ErrUsage, raw, len(parts))
	}
	entry := MappingEntry{
		Remote: strings.TrimSpace(parts[0]),
		Local:  strings.TrimSpace(parts[1]),
	}
	if entry.Remote == "" || entry.Local == "" {
		return MappingEntry{}, fmt.Errorf("%w: 非法参数 %s，remote 与 local 均不能为空", ErrUsage, raw)
	}
	return entry, nil
}

func (e MappingEntry) String() string {
	return e.Remote + "," + e.Local
}

// LogConfig 控制 logrus 的输出位置与格式。
type LogConfig struct {
	Level      string
	FilePath   string
	MaxSize    int
	MaxBackups int
	Compress   bool
	NoColor    bool
}

// Config 是一次运行的只读快照：启动时构建一次，之后所有组件只读共享。
type Config struct {
	Upstream        Upstream
	StaticRoot      string
	Mappings        []MappingEntry
	Bypass          *regexp.Regexp
	LogMask         LogMask
	Handler         string
	CORS            bool
	ListenPort      int
	Compress        bool
	UpstreamTimeout time.Duration
	Diagnostics     bool
	Log             LogConfig
}

// LocalOrigin 返回客户端访问本服务使用的地址，Location 改写以此为目标。
func (c *Config) LocalOrigin() string {
	return fmt.Sprintf("http://localhost:%d", c.ListenPort)
}

// MappingList 返回映射表副本，防止调用方修改共享配置。
func (c *Config) MappingList() []MappingEntry {
	if c == nil || len(c.Mappings) == 0 {
		return nil
	}
	out := make([]MappingEntry, len(c.Mappings))
	copy(out, c.Mappings)
	return out
}

// BypassSource 返回绕过正则的原始表达式，未配置时为空。
func (c *Config) BypassSource() string {
	if c == nil || c.Bypass == nil {
		return ""
	}
	return c.Bypass.String()
}
