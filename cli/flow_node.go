package cli

import (
	"context"

	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/flowchart"
	"github.com/spf13/cobra"
)

func newFlowNodeCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "flow-node",
		Short:       "Query and proceed flow nodes",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newFlowNodeShowCmd(cli))
	c.AddCommand(newFlowNodeQueryCmd(cli))
	c.AddCommand(newFlowNodeProceedCmd(cli))

	return &c
}

func newFlowNodeShowCmd(cli *Cli) *cobra.Command {
	var cmd engine.GetFlowNodeCmd

	c := cobra.Command{
		Use:   "show",
		Short: "Show a flow node",
		RunE: func(c *cobra.Command, _ []string) error {
			flowNode, err := cli.e.GetFlowNode(context.Background(), cmd)
			if err != nil {
				return err
			}

			printFlowNodes(c, []engine.FlowNode{flowNode})
			return nil
		},
	}

	c.Flags().StringVar(&cmd.Id, "id", "", "Flow node ID")

	c.MarkFlagRequired("id")

	return &c
}

func newFlowNodeQueryCmd(cli *Cli) *cobra.Command {
	var (
		elementTypeV []string
		statusV      []string

		criteria engine.FlowNodeCriteria
		options  engine.QueryOptions
	)

	c := cobra.Command{
		Use:   "query",
		Short: "Query flow nodes",
		RunE: func(c *cobra.Command, _ []string) error {
			for _, elementType := range elementTypeV {
				criteria.ElementTypes = append(criteria.ElementTypes, flowchart.MapElementType(elementType))
			}
			for _, status := range statusV {
				criteria.Statuses = append(criteria.Statuses, engine.MapFlowNodeStatus(status))
			}

			flowNodes, err := cli.e.QueryFlowNodes(context.Background(), criteria, options)
			if err != nil {
				return err
			}

			printFlowNodes(c, flowNodes)
			return nil
		},
	}

	c.Flags().StringVar(&criteria.ProcessId, "process-id", "", "Process ID")
	c.Flags().StringVar(&criteria.ElementId, "element-id", "", "Flowchart element ID")
	c.Flags().StringArrayVar(&elementTypeV, "element-type", nil, "Element type, e.g. TASK or EVENT_TIMER_CATCH")
	c.Flags().StringArrayVar(&statusV, "status", nil, "Flow node status, e.g. PENDING or PROCESSED")
	c.Flags().IntVar(&options.Limit, "limit", 0, "Maximum number of results")
	c.Flags().IntVar(&options.Offset, "offset", 0, "Number of results to skip")

	return &c
}

func newFlowNodeProceedCmd(cli *Cli) *cobra.Command {
	var (
		parameterV []string

		cmd engine.ProceedFlowNodeCmd
	)

	c := cobra.Command{
		Use:   "proceed",
		Short: "Proceed a pending catch event flow node",
		RunE: func(c *cobra.Command, _ []string) error {
			parameters, err := parseVariables(parameterV)
			if err != nil {
				return err
			}
			cmd.Parameters = parameters

			flowNode, err := cli.e.ProceedFlowNode(context.Background(), cmd)
			if err != nil {
				return err
			}

			printFlowNodes(c, []engine.FlowNode{flowNode})
			return nil
		},
	}

	c.Flags().StringVar(&cmd.Id, "id", "", "Flow node ID")
	c.Flags().StringArrayVar(&parameterV, "parameter", nil, "Trigger parameter, consisting of key and value")

	c.MarkFlagRequired("id")

	return &c
}

func printFlowNodes(c *cobra.Command, flowNodes []engine.FlowNode) {
	t := newTable([]string{"ID", "PROCESS", "ELEMENT", "TYPE", "STATUS", "CREATED AT", "PROCESSED AT"})
	for _, flowNode := range flowNodes {
		t.addRow([]string{
			flowNode.Id,
			flowNode.ProcessId,
			flowNode.ElementId,
			flowNode.ElementType.String(),
			flowNode.Status.String(),
			formatTime(flowNode.CreatedAt),
			formatTimeOrNil(flowNode.ProcessedAt),
		})
	}

	c.Print(t.format())
}
