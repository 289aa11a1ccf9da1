// Package cmd contains the ledger client commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd constructs the command tree. Flags can also be provided by
// environment variables prefixed with LEDGER, like LEDGER_URL.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ledger")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "ledger",
		Short:         "Client for a proof of work ledger node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("url", "u", "http://localhost:5000", "Url of the node.")
	if err := v.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintln(os.Stderr, "binding flags:", err)
	}

	nc := func() *client {
		return newClient(v.GetString("url"))
	}

	rootCmd.AddCommand(
		chainCmd(nc),
		blockCmd(nc),
		proofCmd(nc),
		mineCmd(nc),
		sendCmd(nc, v),
		pendingCmd(nc),
		validateCmd(nc),
		statusCmd(nc),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}
