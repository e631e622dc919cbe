package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/logging"
	"go.uber.org/zap"

	entrypoint "github.com/streamingfast/consul-entrypoint"
)

// Version is set via ldflags at build time
var version = "dev"

var zlog, _ = logging.PackageLogger("consul-entrypoint", "github.com/streamingfast/consul-entrypoint/cmd/consul-entrypoint")

func init() {
	logging.InstantiateLoggers(logging.WithDefaultLevel(zap.InfoLevel))
}

// passthrough hands every argument, flags included, to the command.
var passthrough = CommandOptionFunc(forwardArgs)

// forwardArgs disables flag parsing and the built-in help command of cmd, so
// that `help`, `--help` and Consul flags all reach Consul. Subcommands keep
// their own flags.
func forwardArgs(cmd *cobra.Command) {
	cmd.DisableFlagParsing = true
	cmd.Args = cobra.ArbitraryArgs
	cmd.SetHelpCommand(&cobra.Command{Use: "entrypoint-help", Hidden: true})
}

func main() {
	Run(
		"consul-entrypoint [consul arguments...]",
		"Container entrypoint configuring and launching a Consul agent",

		ConfigureVersion(version),

		Execute(runE),
		passthrough,
		Description(`
			Loads the environment (optionally merged with an env file stored in S3),
			fixes ownership of the Consul data and config directories, builds the
			Consul command line and replaces itself with the Consul process.

			Every argument is forwarded to Consul, e.g. 'consul-entrypoint agent -server'.
		`),

		Command(planE,
			"plan [flags] -- [consul arguments...]",
			"Print the resolved Consul invocation without changing anything",
			Description(`
				Resolves the environment and the Consul command line exactly like the
				entrypoint does, then prints the result instead of launching Consul.
				No ownership, capability or file is changed.

				With --env-file, the env file is read from the local filesystem instead
				of object storage, which is handy to check a file before uploading it.
			`),
			Flags(func(flags *pflag.FlagSet) {
				flags.String("env-file", "", "Read the env file from this local path instead of object storage")
				flags.StringP("output", "o", "yaml", "Output format, one of: yaml, json")
			}),
		),

		OnCommandError(func(err error) {
			exitCode := 1
			var stageErr *entrypoint.StageError
			if errors.As(err, &stageErr) {
				exitCode = stageErr.ExitCode()
			}

			fmt.Fprintf(os.Stderr, "consul-entrypoint: %s\n", err)
			zlog.Debug("command error", zap.Error(err), zap.Int("exit_code", exitCode))
			os.Exit(exitCode)
		}),
	)
}

// runE runs the entrypoint pipeline; on success the process becomes Consul.
func runE(cmd *cobra.Command, args []string) error {
	return entrypoint.New().Run(commandContext(cmd), args)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
