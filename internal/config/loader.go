package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// rawConfig 是命令行与配置文件合并后的原始值，尚未校验。
type rawConfig struct {
	Remote      string         `mapstructure:"remote"`
	Port        int            `mapstructure:"port"`
	Secure      bool           `mapstructure:"secure"`
	Dir         string         `mapstructure:"dir"`
	Compress    bool           `mapstructure:"compress"`
	Regex       string         `mapstructure:"regex"`
	Map         []MappingEntry `mapstructure:"map"`
	LogMask     int            `mapstructure:"loglevel"`
	Handler     string         `mapstructure:"handler"`
	CORS        bool           `mapstructure:"cors"`
	NoColor     bool           `mapstructure:"no-color"`
	Timeout     Duration       `mapstructure:"timeout"`
	LogFile     string         `mapstructure:"log-file"`
	Verbosity   string         `mapstructure:"verbosity"`
	Diagnostics bool           `mapstructure:"diagnostics"`
}

// unboundFlags 不交给 viper：map 单独处理，其余只影响 CLI 行为。
var unboundFlags = map[string]struct{}{
	"map":     {},
	"config":  {},
	"version": {},
	"help":    {},
}

// Load 合并已解析的命令行参数与可选配置文件，返回只读 Config。
// 命令行显式给出的值优先于配置文件，配置文件优先于参数默认值；不读取环境变量。
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	var bindErr error
	fs.VisitAll(func(flag *pflag.Flag) {
		if _, skip := unboundFlags[flag.Name]; skip || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(flag.Name, flag)
	})
	if bindErr != nil {
		return nil, fmt.Errorf("绑定参数失败: %w", bindErr)
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if fs.Changed("map") {
		raw.Map = mappingsFromFlag(fs)
	}
	if fs.NArg() > 0 {
		raw.Remote = fs.Arg(0)
	}

	return build(raw)
}

func build(raw rawConfig) (*Config, error) {
	upstream, err := parseUpstream(raw.Remote, raw.Secure)
	if err != nil {
		return nil, err
	}

	root, err := canonicalDir(raw.Dir)
	if err != nil {
		return nil, err
	}

	var bypass *regexp.Regexp
	if raw.Regex != "" {
		bypass, err = regexp.Compile(raw.Regex)
		if err != nil {
			return nil, newFieldError("regex", fmt.Sprintf("无法编译正则: %v", err))
		}
	}

	if raw.LogMask < 0 || raw.LogMask > 63 {
		return nil, newFieldError("logLevel", "必须在 0-63")
	}

	timeout := raw.Timeout.DurationValue()
	if timeout == 0 {
		timeout = defaultTimeout
	}
	level := strings.TrimSpace(raw.Verbosity)
	if level == "" {
		level = "info"
	}

	cfg := &Config{
		Upstream:        upstream,
		StaticRoot:      root,
		Mappings:        append([]MappingEntry(nil), raw.Map...),
		Bypass:          bypass,
		LogMask:         LogMask(raw.LogMask).Normalize(),
		Handler:         strings.TrimSpace(raw.Handler),
		CORS:            raw.CORS,
		ListenPort:      raw.Port,
		Compress:        raw.Compress,
		UpstreamTimeout: timeout,
		Diagnostics:     raw.Diagnostics,
		Log: LogConfig{
			Level:      level,
			FilePath:   raw.LogFile,
			MaxSize:    100,
			MaxBackups: 10,
			Compress:   true,
			NoColor:    raw.NoColor,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseUpstream 解析 remote_host（可带端口），协议由 secure 决定。
func parseUpstream(remote string, secure bool) (Upstream, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return Upstream{}, fmt.Errorf("%w: 缺少 remote_host 参数", ErrUsage)
	}
	if strings.Contains(remote, "://") {
		return Upstream{}, newFieldError("remote_host", "只需填写域名，不要包含协议；https 上游请使用 -s 参数")
	}

	upstream := Upstream{Scheme: "http", Port: 80}
	if secure {
		upstream = Upstream{Scheme: "https", Port: 443}
	}

	host := remote
	if h, p, err := net.SplitHostPort(remote); err == nil {
		port, convErr := strconv.Atoi(p)
		if convErr != nil {
			return Upstream{}, newFieldError("remote_host", fmt.Sprintf("端口不合法: %s", p))
		}
		host = h
		upstream.Port = port
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if host == "" || strings.ContainsAny(host, "/ ") {
		return Upstream{}, newFieldError("remote_host", fmt.Sprintf("主机名不合法: %s", remote))
	}
	upstream.Host = host
	return upstream, nil
}

// canonicalDir 返回静态根目录的绝对真实路径（解析符号链接）。
func canonicalDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "./"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", newFieldError("dir", fmt.Sprintf("无法解析目录: %v", err))
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", newFieldError("dir", fmt.Sprintf("目录不存在: %s", abs))
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", newFieldError("dir", fmt.Sprintf("不是目录: %s", resolved))
	}
	return resolved, nil
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mappingDecodeHook(),
	)
}

// mappingDecodeHook 允许配置文件使用 "remote,local" 字符串书写映射项。
func mappingDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(MappingEntry{})

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType || from.Kind() != reflect.String {
			return data, nil
		}
		return ParseMappingEntry(data.(string))
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			var d Duration
			if err := d.UnmarshalText([]byte(v)); err != nil {
				return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
			}
			return d, nil
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
