package cli

import (
	"context"

	"github.com/monostax/bpmflow/engine"
	"github.com/spf13/cobra"
)

func newDueCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "due",
		Short:       "Proceed due flow nodes",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newDueProceedCmd(cli))

	return &c
}

func newDueProceedCmd(cli *Cli) *cobra.Command {
	var cmd engine.ProceedDueCmd

	c := cobra.Command{
		Use:   "proceed",
		Short: "Proceed one batch of due flow nodes",
		RunE: func(c *cobra.Command, _ []string) error {
			flowNodes, err := cli.e.ProceedDue(context.Background(), cmd)
			if err != nil {
				return err
			}

			printFlowNodes(c, flowNodes)
			return nil
		},
	}

	c.Flags().StringVar(&cmd.ProcessId, "process-id", "", "Limit to flow nodes of one process")
	c.Flags().IntVar(&cmd.Limit, "limit", 0, "Maximum number of flow nodes to proceed")

	return &c
}
