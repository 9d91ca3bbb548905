package cli

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/auth"
)

func newAPIKeysCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apikeys",
		Aliases: []string{"keys"},
		Short:   "Manage API keys stored in the history database",
	}
	cmd.AddCommand(
		newKeyCreateCmd(e),
		newKeyListCmd(e),
		newKeyRevokeCmd(e),
		newKeyHashCmd(),
	)
	return cmd
}

// withKeys opens storage and runs fn against a key service backed by it.
func (e *env) withKeys(fn func(*auth.KeyService) error) error {
	history, err := e.openHistory()
	if err != nil {
		return err
	}
	defer history.Close()
	return fn(auth.NewKeyService(history, auth.WithLogger(e.logger.With("component", "auth"))))
}

func newKeyCreateCmd(e *env) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a key and print its token once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return fmt.Errorf("%w: %q", err, role)
			}
			return e.withKeys(func(keys *auth.KeyService) error {
				token, key, err := keys.CreateKey(cmd.Context(), args[0], r)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created key %s (%s, role %s)\n", key.Name, key.ID, key.Role)
				fmt.Fprintf(out, "Token: %s\n", token)
				fmt.Fprintln(out, "The token is not stored and cannot be shown again.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "key role: admin, operator or viewer")
	return cmd
}

func newKeyListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withKeys(func(keys *auth.KeyService) error {
				list, err := keys.ListKeys(cmd.Context())
				if err != nil {
					return err
				}
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("ID", "Name", "Role", "Created", "Last Used")
				for _, k := range list {
					_ = table.Append([]string{
						k.ID,
						k.Name,
						string(k.Role),
						k.CreatedAt.Local().Format(time.DateTime),
						formatLastUsed(k.LastUsed),
					})
				}
				return table.Render()
			})
		},
	}
}

func formatLastUsed(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func newKeyRevokeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id|name>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withKeys(func(keys *auth.KeyService) error {
				if err := keys.RevokeKey(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s\n", args[0])
				return nil
			})
		},
	}
}

func newKeyHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <token>",
		Short: "Print the bcrypt hash to use as auth.static_key_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
