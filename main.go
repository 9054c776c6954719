package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/dproxy/dproxy/internal/config"
	"github.com/dproxy/dproxy/internal/logging"
	"github.com/dproxy/dproxy/internal/proxy"
	"github.com/dproxy/dproxy/internal/proxy/hooks"
	"github.com/dproxy/dproxy/internal/resolver"
	"github.com/dproxy/dproxy/internal/server"
	"github.com/dproxy/dproxy/internal/server/routes"
	"github.com/dproxy/dproxy/internal/version"
)

const usageLine = "Usage: dproxy [options] <remote_host>"

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	flags       *pflag.FlagSet
	showHelp    bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		printUsage(stdErr, opts.flags)
		os.Exit(1)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showHelp {
		printUsage(stdOut, opts.flags)
		return 0
	}
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.flags)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		if errors.Is(err, config.ErrUsage) {
			printUsage(stdErr, opts.flags)
		}
		return 1
	}

	logger, err := logging.InitLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	adapter, err := hooks.Load(cfg.Handler)
	if err != nil {
		fmt.Fprintf(stdErr, "加载 handler 失败: %v\n", err)
		return 1
	}

	// 启动顺序：配置 → 日志 → hook → 指标 → 上游客户端 → 解析链 → Fiber，
	// 任何一步失败都在监听端口之前退出。
	app, err := buildApp(cfg, logger, adapter)
	if err != nil {
		fmt.Fprintf(stdErr, "构建 HTTP 服务失败: %v\n", err)
		return 1
	}

	if cfg.LogMask.Has(config.LogMessages) {
		fields := logging.BaseFields("listen", cfg.Upstream.String())
		fields["port"] = cfg.ListenPort
		fields["secure"] = cfg.Upstream.Secure()
		fields["static_root"] = cfg.StaticRoot
		fields["handler"] = adapter.Describe().Name
		fields["version"] = version.Full()
		logger.WithFields(fields).Infof("Listening on port %d, proxy domain: '%s', secure:%t",
			cfg.ListenPort, cfg.Upstream.String(), cfg.Upstream.Secure())
	}

	if err := app.Listen(fmt.Sprintf(":%d", cfg.ListenPort), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数；位置参数 remote_host 留给 config.Load 读取。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := config.NewFlagSet("dproxy")
	fs.SetOutput(io.Discard)

	opts := cliOptions{flags: fs}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			opts.showHelp = true
			return opts, nil
		}
		return opts, fmt.Errorf("解析参数失败: %w", err)
	}
	opts.showVersion, _ = fs.GetBool("version")
	return opts, nil
}

// buildApp 组装上游客户端、转发器、解析链与 Fiber 应用，不监听端口。
func buildApp(cfg *config.Config, logger *logrus.Logger, adapter *hooks.Adapter) (*fiber.App, error) {
	server.InitMetrics()

	client := server.NewUpstreamClient(cfg)
	dispatcher := proxy.NewDispatcher(cfg, client, logger, adapter)
	chain := resolver.NewChain(cfg, dispatcher)

	app, err := server.NewApp(server.AppOptions{
		Logger:  logger,
		Config:  cfg,
		Handler: chain,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Diagnostics {
		routes.RegisterDiagnosticsRoutes(app, cfg, adapter.Describe())
	}
	return app, nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, usageLine)
	if fs != nil {
		fmt.Fprintln(w)
		fmt.Fprint(w, fs.FlagUsages())
	}
}
