package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xshortlink/internal/app"
	"github.com/omeyang/xshortlink/internal/config"
	"github.com/omeyang/xshortlink/internal/shortcut"
	"github.com/omeyang/xshortlink/internal/shortid"
)

// EnvConfig 指定配置文件路径的环境变量。
const EnvConfig = "SHORTLINK_CONFIG"

func createServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动 HTTP 服务",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json），变更后热更新日志级别",
				Sources: cli.EnvVars(EnvConfig),
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "覆盖 server.addr",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdServe(ctx, cmd.String("config"), cmd.String("addr"))
		},
	}
}

func createIDCommand() *cli.Command {
	return &cli.Command{
		Name:      "id",
		Usage:     "离线计算 URL 的短链 ID（不加盐的首次尝试）",
		ArgsUsage: "<url>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return &usageError{msg: "id 需要且只需要一个 url 参数"}
			}
			url := cmd.Args().First()
			if shortcut.Blank(url) {
				return &usageError{msg: "url 不能为空"}
			}
			_, err := fmt.Fprintln(cmd.Root().Writer, shortid.SHA256{}.Generate(url))
			return err
		},
	}
}

func createVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "打印版本信息",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(cmd.Root().Writer, "shortlinkd", versionString())
			return err
		},
	}
}

// loadConfig 读取配置文件，path 为空时使用默认配置。addr 非空时覆盖监听地址。
func loadConfig(path, addr string) (*config.Config, error) {
	var cfg *config.Config
	if path == "" {
		d := config.Default()
		cfg = &d
	} else {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cmdServe(ctx context.Context, path, addr string) (err error) {
	cfg, err := loadConfig(path, addr)
	if err != nil {
		return err
	}

	var opts []app.Option
	if path != "" {
		opts = append(opts, app.WithConfigPath(path))
	}

	// 启动阶段（存储连接重试）也要能被信号打断；进入 Run 后由 App 自己处理信号。
	startCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	a, err := app.New(startCtx, cfg, opts...)
	stop()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close(context.WithoutCancel(ctx)))
	}()

	if err := a.Run(ctx); err != nil && !errors.Is(err, app.ErrSignal) {
		return err
	}
	return nil
}
