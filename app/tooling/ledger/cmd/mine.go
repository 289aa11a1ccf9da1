package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

func mineCmd(nc func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "Mine the pending transactions into a new block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := nc().get("/mine", http.StatusOK)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), data)
		},
	}
}
