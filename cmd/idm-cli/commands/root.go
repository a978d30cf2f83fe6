package commands

import (
	"context"

	"github.com/spf13/cobra"

	cliUtils "github.com/medunigraz/idmsync/utils/cli"
)

func NewRootCmd(ctx context.Context) *cobra.Command {
	return cliUtils.NewRootCmd(
		ctx,
		"idm",
		"IDM Sync CLI",
		"CLI tool to manage and invoke idmsync asynchronous tasks.",
	)
}
