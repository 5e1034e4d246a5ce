// shortlinkd 是短链服务。
//
// 用法:
//
//	shortlinkd serve [-c config.yaml] [--addr :8080]
//	shortlinkd id <url>
//	shortlinkd version
//
// 配置文件路径也可以通过环境变量 SHORTLINK_CONFIG 指定；
// 未指定时使用内置默认配置（bolt 存储，监听 :8080）。
//
// 退出码:
//
//	0: 成功，或收到退出信号后正常关闭
//	1: 运行失败
//	2: 参数错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息，通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// usageError 表示命令行参数错误。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "shortlinkd",
		Usage:     "URL 短链服务",
		Version:   versionString(),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			createServeCommand(),
			createIDCommand(),
			createVersionCommand(),
		},
		DefaultCommand: "serve",
		// 退出码由 run 统一映射。
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := createApp(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}
	var uerr *usageError
	if errors.As(err, &uerr) || isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 自身产生的参数解析错误。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "flag provided but not defined") ||
		strings.Contains(msg, "flag needs an argument") ||
		strings.Contains(msg, "invalid value")
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}
