package cli

import (
	"context"

	"github.com/monostax/bpmflow/engine"
	"github.com/spf13/cobra"
)

func newUserTaskCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "user-task",
		Short:       "Complete user tasks",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newUserTaskCompleteCmd(cli))

	return &c
}

func newUserTaskCompleteCmd(cli *Cli) *cobra.Command {
	var (
		variableV []string

		cmd engine.CompleteUserTaskCmd
	)

	c := cobra.Command{
		Use:   "complete",
		Short: "Complete the user task a flow node is waiting for",
		RunE: func(c *cobra.Command, _ []string) error {
			variables, err := parseVariables(variableV)
			if err != nil {
				return err
			}
			cmd.Variables = variables

			flowNode, err := cli.e.CompleteUserTask(context.Background(), cmd)
			if err != nil {
				return err
			}

			printFlowNodes(c, []engine.FlowNode{flowNode})
			return nil
		},
	}

	c.Flags().StringVar(&cmd.FlowNodeId, "flow-node-id", "", "Flow node ID")
	c.Flags().StringVar(&cmd.Resolution, "resolution", "", "User task resolution, e.g. APPROVED")
	c.Flags().StringArrayVar(&variableV, "variable", nil, "Variable, consisting of key and value")

	c.MarkFlagRequired("flow-node-id")
	c.MarkFlagRequired("resolution")

	return &c
}
