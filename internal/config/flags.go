package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	defaultListenPort = 3333
	defaultTimeout    = 30 * time.Second
)

// MappingFlag 实现 pflag.Value，收集可重复出现的 -m/--map 参数。
type MappingFlag []MappingEntry

func (f *MappingFlag) String() string {
	if f == nil || len(*f) == 0 {
		return ""
	}
	parts := make([]string, len(*f))
	for i, entry := range *f {
		parts[i] = entry.String()
	}
	return strings.Join(parts, " ")
}

// Set 每次调用追加一项；格式不合法时返回 ErrUsage，使 CLI 打印帮助后退出。
func (f *MappingFlag) Set(value string) error {
	entry, err := ParseMappingEntry(value)
	if err != nil {
		return err
	}
	*f = append(*f, entry)
	return nil
}

func (f *MappingFlag) Type() string {
	return "remote,local"
}

// NewFlagSet 声明全部 CLI 参数；解析由调用方完成，以便测试注入参数。
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.IntP("port", "p", defaultListenPort, "本地监听端口")
	fs.BoolP("secure", "s", false, "上游使用 https（默认端口 443，否则 80）")
	fs.StringP("dir", "d", "./", "静态文件根目录")
	fs.BoolP("compress", "z", true, "启用响应压缩")
	fs.StringP("regex", "r", "", "请求 URL 匹配该正则时直接转发到上游，不查找本地文件")
	fs.VarP(&MappingFlag{}, "map", "m", "将远端路径（glob，如 static/*.txt）映射到本地文件，可重复；相对路径基于 --dir 解析")
	fs.IntP("logLevel", "l", int(DefaultLogMask), "日志开关位掩码：0=关闭 1=全部 2=消息 4=REGEX 8=MAP 16=LOCAL 32=REMOTE")
	fs.String("handler", "", "请求/响应 hook：已注册的名称或 Go plugin 文件（.so）")
	fs.Bool("cors", false, "对转发的响应回显请求 Origin 作为 CORS 允许来源")
	fs.Bool("no-color", false, "关闭控制台彩色输出")
	fs.String("config", "", "可选配置文件（toml/yaml/json），命令行参数优先")
	fs.Duration("timeout", defaultTimeout, "单次上游请求超时")
	fs.String("log-file", "", "将 JSON 日志写入文件（按大小滚动）")
	fs.String("verbosity", "info", "logrus 日志级别")
	fs.Bool("diagnostics", false, "暴露 /-/status、/-/hooks、/-/metrics 诊断接口")
	fs.BoolP("version", "V", false, "显示版本信息")

	return fs
}

// mappingsFromFlag 读取命令行中收集到的映射项。
func mappingsFromFlag(fs *pflag.FlagSet) []MappingEntry {
	flag := fs.Lookup("map")
	if flag == nil {
		return nil
	}
	if value, ok := flag.Value.(*MappingFlag); ok && value != nil {
		return append([]MappingEntry(nil), (*value)...)
	}
	return nil
}
