package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions は全コマンド共通のフラグ
type RootOptions struct {
	EnvFile string
}

// NewRootCommand はstorefrontコマンドのルート
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront wishlist API server and client",
		Long:  "Runs the storefront wishlist API, manages its database, and drives the wishlist client against a running server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "path to a .env file (default: ./.env if present)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewWishlistCommand(opts))

	return cmd
}
