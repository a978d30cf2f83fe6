package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/medunigraz/idmsync/internal/async"
	"github.com/medunigraz/idmsync/internal/async/tasks"
	"github.com/medunigraz/idmsync/internal/config"
)

//nolint:funlen,cyclop
func NewInvokeCmd(ctx context.Context, asyncClient async.AsyncClient) *cobra.Command {
	var (
		taskName string
		targetID string
		sourceID string
		language string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Invoke a scheduled task",
		Long: "Invoke a scheduled task immediately by providing its task name. \n" +
			"The organizations task accepts --target, --language and --dry-run; \n" +
			"the threat check task accepts --source. \n" +
			"For example: idm-cli invoke --task idm:organizations --dry-run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var payload []byte

			switch taskName {
			case config.TypeOrganizationsTask:
				p := tasks.OrganizationsPayload{Language: language, DryRun: dryRun}

				if targetID != "" {
					id, err := uuid.Parse(targetID)
					if err != nil {
						cmd.PrintErrf("Invalid target id: %v\n", err)
						return err
					}

					p.TargetID = &id
				}

				b, err := p.ToBytes()
				if err != nil {
					cmd.PrintErrf("Failed to create payload: %v", err)
					return err
				}

				payload = b
			case config.TypeThreatCheckTask:
				p := tasks.ThreatCheckPayload{}

				if sourceID != "" {
					id, err := uuid.Parse(sourceID)
					if err != nil {
						cmd.PrintErrf("Invalid source id: %v\n", err)
						return err
					}

					p.SourceID = &id
				}

				b, err := p.ToBytes()
				if err != nil {
					cmd.PrintErrf("Failed to create payload: %v", err)
					return err
				}

				payload = b
			case config.TypeRegistryRefreshTask:
			default:
				cmd.PrintErrf("Unknown task name or not supported: %s\n", taskName)
				return nil
			}

			task := asynq.NewTask(taskName, payload)

			taskInfo, err := asyncClient.Enqueue(task)
			if err != nil {
				cmd.PrintErrf("Failed to enqueue task: %v", err)
				return err
			}

			cmd.Printf("Task %s enqueued with ID: %s\n", taskName, taskInfo.ID)

			return nil
		},
	}

	cmd.SetContext(ctx)
	cmd.Flags().StringVar(&taskName, "task", "", "Task name to invoke")
	cmd.Flags().StringVar(&targetID, "target", "", "LDAP target ID for the organizations task")
	cmd.Flags().StringVar(&sourceID, "source", "", "Threat source ID for the check task")
	cmd.Flags().StringVar(&language, "language", "", "Organization name language for group naming")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and log mutations without writing")

	err := cmd.MarkFlagRequired("task")
	if err != nil {
		cmd.PrintErrf("failed to mark flag 'task' as required: %v\n", err)
	}

	return cmd
}
