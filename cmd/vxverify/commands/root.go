package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	envFile    string
	logLevel   string
	traceSpans bool
	noColor    bool
)

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "vxverify",
		Short: "Verify VX oracle signatures for provably fair game rounds",
		Long: "vxverify rebuilds the message the VX oracle signs for a game round and checks the " +
			"oracle's BLS12-381 signature against the published commitment and public key.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "vxverify.yaml", "config file path (defaults apply when it does not exist)")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with VXVERIFY_* overrides (default .env)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&traceSpans, "trace", false, "write OpenTelemetry spans to stderr")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newVerifyCmd(),
		newMessageCmd(),
		newBatchCmd(),
		newQueryCmd(),
		newAppsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}
