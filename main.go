package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	metricsPath string
	showVersion bool
	command     string
	args        []string
}

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	// exitMiss 表示 get 未命中或 is-empty 时 bin 非空。
	exitMiss = 3
)

var (
	stdIn  io.Reader = os.Stdin
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

var errUsage = errors.New("usage: filecache [-config path] [-metrics file] <get|get-multiple|set|delete|delete-prefix|flush|gc|is-empty|check-config|version> [args]")

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(exitUsage)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行命令，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion || opts.command == "version" {
		printVersion()
		return exitOK
	}
	cmd, ok := commands[opts.command]
	if !ok {
		fmt.Fprintln(stdErr, errUsage.Error())
		return exitUsage
	}

	env, err := newEnvironment(opts)
	if err != nil {
		fmt.Fprintf(stdErr, "%v\n", err)
		return exitFailure
	}
	defer env.close()

	code := cmd(env, opts.args)
	if err := env.writeMetrics(); err != nil {
		fmt.Fprintf(stdErr, "写入指标失败: %v\n", err)
		if code == exitOK {
			code = exitFailure
		}
	}
	return code
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("filecache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag  string
		metricsFlag string
		showVer     bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 FILECACHE_CONFIG 覆盖）")
	fs.StringVar(&metricsFlag, "metrics", "", "命令结束后写入 Prometheus textfile 的路径")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("FILECACHE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	opts := cliOptions{
		configPath:  path,
		metricsPath: metricsFlag,
		showVersion: showVer,
	}
	if fs.NArg() > 0 {
		opts.command = strings.ToLower(fs.Arg(0))
		opts.args = fs.Args()[1:]
	}
	if opts.command == "" && !showVer {
		return cliOptions{}, errUsage
	}
	return opts, nil
}
