package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func sendCmd(nc func() *client, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Submit a transaction to the mempool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount := json.Number(v.GetString("amount"))
			if _, err := amount.Float64(); err != nil {
				return fmt.Errorf("amount %q is not a number", amount)
			}

			tx := struct {
				Sender    string      `json:"sender"`
				Recipient string      `json:"recipient"`
				Amount    json.Number `json:"amount"`
			}{
				Sender:    v.GetString("sender"),
				Recipient: v.GetString("recipient"),
				Amount:    amount,
			}

			data, _, err := nc().post("/transactions/new", tx, http.StatusCreated)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringP("sender", "s", "", "Sender of the amount.")
	cmd.Flags().StringP("recipient", "r", "", "Recipient of the amount.")
	cmd.Flags().StringP("amount", "a", "", "Amount to send.")
	cmd.MarkFlagRequired("sender")
	cmd.MarkFlagRequired("recipient")
	cmd.MarkFlagRequired("amount")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}

	return cmd
}
