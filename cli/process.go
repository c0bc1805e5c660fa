package cli

import (
	"context"

	"github.com/monostax/bpmflow/engine"
	"github.com/spf13/cobra"
)

func newProcessCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "process",
		Short:       "Manage and query processes",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newProcessStartCmd(cli))
	c.AddCommand(newProcessShowCmd(cli))
	c.AddCommand(newProcessQueryCmd(cli))
	c.AddCommand(newProcessStopCmd(cli))
	c.AddCommand(newProcessSetVariablesCmd(cli))

	return &c
}

func newProcessStartCmd(cli *Cli) *cobra.Command {
	var (
		variableV []string

		cmd engine.StartProcessCmd
	)

	c := cobra.Command{
		Use:   "start",
		Short: "Start a process for a target record",
		RunE: func(c *cobra.Command, _ []string) error {
			variables, err := parseVariables(variableV)
			if err != nil {
				return err
			}
			cmd.Variables = variables

			process, err := cli.e.StartProcess(context.Background(), cmd)
			if err != nil {
				return err
			}

			c.Println(process.Id)
			return nil
		},
	}

	c.Flags().StringVar(&cmd.FlowchartId, "flowchart-id", "", "ID of a deployed flowchart")
	c.Flags().StringVar(&cmd.TargetType, "target-type", "", "Entity type of the target record")
	c.Flags().StringVar(&cmd.TargetId, "target-id", "", "ID of the target record")
	c.Flags().StringVar(&cmd.StartElementId, "start-element-id", "", "ID of a specific start event element")
	c.Flags().StringArrayVar(&variableV, "variable", nil, "Variable, consisting of key and value")
	c.Flags().StringVar(&cmd.AssignedUserId, "assigned-user-id", "", "ID of the assigned user")
	c.Flags().StringArrayVar(&cmd.TeamIds, "team-id", nil, "ID of an owning team")

	c.MarkFlagRequired("flowchart-id")
	c.MarkFlagRequired("target-type")
	c.MarkFlagRequired("target-id")

	return &c
}

func newProcessShowCmd(cli *Cli) *cobra.Command {
	var cmd engine.GetProcessCmd

	c := cobra.Command{
		Use:   "show",
		Short: "Show a process",
		RunE: func(c *cobra.Command, _ []string) error {
			process, err := cli.e.GetProcess(context.Background(), cmd)
			if err != nil {
				return err
			}

			printProcesses(c, []engine.Process{process})
			return nil
		},
	}

	c.Flags().StringVar(&cmd.Id, "id", "", "Process ID")

	c.MarkFlagRequired("id")

	return &c
}

func newProcessQueryCmd(cli *Cli) *cobra.Command {
	var (
		statusV []string

		criteria engine.ProcessCriteria
		options  engine.QueryOptions
	)

	c := cobra.Command{
		Use:   "query",
		Short: "Query processes",
		RunE: func(c *cobra.Command, _ []string) error {
			for _, status := range statusV {
				criteria.Statuses = append(criteria.Statuses, engine.MapProcessStatus(status))
			}

			processes, err := cli.e.QueryProcesses(context.Background(), criteria, options)
			if err != nil {
				return err
			}

			printProcesses(c, processes)
			return nil
		},
	}

	c.Flags().StringVar(&criteria.FlowchartId, "flowchart-id", "", "Flowchart ID")
	c.Flags().StringVar(&criteria.TargetType, "target-type", "", "Entity type of the target record")
	c.Flags().StringVar(&criteria.TargetId, "target-id", "", "ID of the target record")
	c.Flags().StringVar(&criteria.ParentProcessId, "parent-process-id", "", "ID of the parent process")
	c.Flags().StringArrayVar(&statusV, "status", nil, "Process status, e.g. STARTED or FAILED")
	c.Flags().IntVar(&options.Limit, "limit", 0, "Maximum number of results")
	c.Flags().IntVar(&options.Offset, "offset", 0, "Number of results to skip")

	return &c
}

func newProcessStopCmd(cli *Cli) *cobra.Command {
	var cmd engine.StopProcessCmd

	c := cobra.Command{
		Use:   "stop",
		Short: "Stop a started process",
		RunE: func(c *cobra.Command, _ []string) error {
			return cli.e.StopProcess(context.Background(), cmd)
		},
	}

	c.Flags().StringVar(&cmd.Id, "id", "", "Process ID")

	c.MarkFlagRequired("id")

	return &c
}

func newProcessSetVariablesCmd(cli *Cli) *cobra.Command {
	var (
		variableV []string

		cmd engine.SetProcessVariablesCmd
	)

	c := cobra.Command{
		Use:   "set-variables",
		Short: "Set or delete variables of a started process",
		RunE: func(c *cobra.Command, _ []string) error {
			variables, err := parseVariables(variableV)
			if err != nil {
				return err
			}
			cmd.Variables = variables

			return cli.e.SetProcessVariables(context.Background(), cmd)
		},
	}

	c.Flags().StringVar(&cmd.ProcessId, "id", "", "Process ID")
	c.Flags().StringArrayVar(&variableV, "variable", nil, "Variable, consisting of key and value; a null value deletes the variable")

	c.MarkFlagRequired("id")
	c.MarkFlagRequired("variable")

	return &c
}

func printProcesses(c *cobra.Command, processes []engine.Process) {
	t := newTable([]string{"ID", "FLOWCHART", "TARGET", "STATUS", "ERROR", "STARTED AT", "ENDED AT"})
	for _, process := range processes {
		t.addRow([]string{
			process.Id,
			process.FlowchartId,
			process.TargetType + "/" + process.TargetId,
			process.Status.String(),
			process.ErrorCode,
			formatTime(process.CreatedAt),
			formatTimeOrNil(process.EndedAt),
		})
	}

	c.Print(t.format())
}
