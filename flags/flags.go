package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "IKOS_HARNESS"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Tool = &cli.StringFlag{
		Name:    "tool",
		Value:   "ikos",
		EnvVars: prefixEnvVar("TOOL"),
		Usage:   "Name or path of the analyzer binary to run",
	}
	ReportTool = &cli.StringFlag{
		Name:    "report-tool",
		Value:   "ikos-report",
		EnvVars: prefixEnvVar("REPORT_TOOL"),
		Usage:   "Name or path of the analyzer's report generator binary",
	}
	Project = &cli.StringFlag{
		Name:     "project",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("PROJECT"),
		Usage:    "Project name keying the results directory (eg. 'nav2_core')",
	}
	TestName = &cli.StringFlag{
		Name:    "test-name",
		Value:   "ikos",
		EnvVars: prefixEnvVar("TEST_NAME"),
		Usage:   "Name identifying this run and all of its output paths",
	}
	ResultsDir = &cli.StringFlag{
		Name:     "results-dir",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("RESULTS_DIR"),
		Usage:    "Root of the test-results tree to write reports into",
	}
	BuildDir = &cli.StringFlag{
		Name:    "build-dir",
		Value:   ".",
		EnvVars: prefixEnvVar("BUILD_DIR"),
		Usage:   "Build root used as the tool working directory and raw capture location",
	}
	ScanDir = &cli.StringFlag{
		Name:    "scan-dir",
		Value:   "",
		EnvVars: prefixEnvVar("SCAN_DIR"),
		Usage:   "Directory to scan recursively for analyzer marker files (enables scan mode)",
	}
	ExtraArg = &cli.StringSliceFlag{
		Name:    "extra-arg",
		EnvVars: prefixEnvVar("EXTRA_ARG"),
		Usage:   "Additional argument appended verbatim to the tool invocation (repeatable)",
	}
	AnalysesFile = &cli.StringFlag{
		Name:    "analyses",
		Value:   "",
		EnvVars: prefixEnvVar("ANALYSES"),
		Usage:   "Path to an analyses config file (eg. 'analyses.yaml') describing multiple runs",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVar("RUN_INTERVAL"),
		Usage:   "Interval between analysis runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: prefixEnvVar("CONCURRENCY"),
		Usage:   "Number of concurrent analysis workers (0 = number of CPUs)",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
		Usage:   "Log level: debug, info, warn or error",
	}
	LogFormat = &cli.StringFlag{
		Name:    "log-format",
		Value:   "text",
		EnvVars: prefixEnvVar("LOG_FORMAT"),
		Usage:   "Log format: text or json",
	}
)

var requiredFlags = []cli.Flag{
	Project,
	ResultsDir,
}

var optionalFlags = []cli.Flag{
	Tool,
	ReportTool,
	TestName,
	BuildDir,
	ScanDir,
	ExtraArg,
	AnalysesFile,
	RunInterval,
	Concurrency,
	LogLevel,
	LogFormat,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
