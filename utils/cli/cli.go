package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the bare root command the subcommands attach to.
func NewRootCmd(ctx context.Context, use, shortDesc, longDesc string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   use,
		Short: shortDesc,
		Long:  longDesc,
	}

	rootCmd.SetContext(ctx)

	return rootCmd
}
