package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shiftwave/chainkit/config"
)

// Environment variables consumed by the CLI, typically from a local .env.
const (
	EnvMnemonic   = "CHAINKIT_MNEMONIC"
	EnvPassphrase = "CHAINKIT_PASSPHRASE"
)

func main() {
	if err := CmdChainkit().Execute(); err != nil {
		os.Exit(1)
	}
}

func CmdChainkit() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "chainkit",
		Short:        "Derive addresses, inspect accounts, estimate fees, quote swaps, and send transactions",
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// A local .env may carry the mnemonic and config path.
			if err := godotenv.Load(); err == nil {
				logrus.Debug("loaded .env")
			}
			level, _ := cmd.Flags().GetString("log-level")
			config.ConfigureLogger(level)
		},
	}
	cmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().String("chain", "", "chain identifier (bitcoin, ethereum, avalanche)")

	cmd.AddCommand(CmdAddress())
	cmd.AddCommand(CmdAccount())
	cmd.AddCommand(CmdHistory())
	cmd.AddCommand(CmdFees())
	cmd.AddCommand(CmdQuote())
	cmd.AddCommand(CmdSend())
	return cmd
}

func fatalUsage(cmd *cobra.Command, format string, args ...interface{}) error {
	_ = cmd.Usage()
	return fmt.Errorf(format, args...)
}
