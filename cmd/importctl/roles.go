package main

import (
	"fmt"

	"github.com/JonMunkholm/userimport/internal/config"
	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/spf13/cobra"
)

func newRolesCmd() *cobra.Command {
	var storeName string

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List or add the roles import rows may use",
	}
	cmd.PersistentFlags().StringVar(&storeName, "store", "", "Account store: postgres or sqlite:<path> (default: postgres if DATABASE_URL is set)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openCommandStore(cmd, storeName)
			if err != nil {
				return err
			}
			defer st.close()

			roles, err := st.accounts.Roles(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range roles {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}

	var label string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a role (no-op if it exists)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := core.ValidateRoleName(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}
			if label == "" {
				label = name
			}

			st, err := openCommandStore(cmd, storeName)
			if err != nil {
				return err
			}
			defer st.close()

			if err := st.accounts.CreateRole(cmd.Context(), name, label); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "role %s ready\n", name)
			return nil
		},
	}
	add.Flags().StringVar(&label, "label", "", "Human-readable label (default: the name)")

	cmd.AddCommand(list, add)
	return cmd
}

func openCommandStore(cmd *cobra.Command, name string) (*store, error) {
	cfg, err := config.Load(config.WithoutDatabase())
	if err != nil {
		return nil, err
	}
	return openStore(cmd.Context(), name, cfg)
}
