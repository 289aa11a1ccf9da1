package cmd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
)

func validateCmd(nc func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Audit the chain; exits with an error when it is broken",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := nc().get("/validate", http.StatusOK, http.StatusBadRequest)
			if err != nil {
				return err
			}

			if err := render(cmd.OutOrStdout(), data); err != nil {
				return err
			}

			var v struct {
				Valid   bool   `json:"valid"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(data, &v); err != nil {
				return err
			}

			if !v.Valid {
				return errors.New(v.Message)
			}

			return nil
		},
	}
}
