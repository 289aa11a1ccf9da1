package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

func chainCmd(nc func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "chain",
		Short: "Show every block in the chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := nc().get("/chain", http.StatusOK)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), data)
		},
	}
}

func blockCmd(nc func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "block <index>",
		Short: "Show the block at the index, starting at 1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := nc().get("/blocks/"+args[0], http.StatusOK)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), data)
		},
	}
}

func proofCmd(nc func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "proof <index> <position>",
		Short: "Show the merkle proof for a transaction in a block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := nc().get("/blocks/"+args[0]+"/proof/"+args[1], http.StatusOK)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), data)
		},
	}
}

func pendingCmd(nc func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Show the transactions waiting to be mined",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := nc().get("/transactions/pending", http.StatusOK)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), data)
		},
	}
}

func statusCmd(nc func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the node identity and ledger size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := nc().get("/status", http.StatusOK)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), data)
		},
	}
}
