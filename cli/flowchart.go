package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/monostax/bpmflow/engine"
	"github.com/spf13/cobra"
)

func newFlowchartCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "flowchart",
		Short:       "Deploy and get flowcharts",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newFlowchartCreateCmd(cli))
	c.AddCommand(newFlowchartGetCmd(cli))

	return &c
}

func newFlowchartCreateCmd(cli *Cli) *cobra.Command {
	var fileName string

	c := cobra.Command{
		Use:   "create",
		Short: "Deploy a flowchart definition",
		RunE: func(c *cobra.Command, _ []string) error {
			definition, err := os.ReadFile(fileName)
			if err != nil {
				return fmt.Errorf("failed to read flowchart file %s: %v", fileName, err)
			}

			flowchart, err := cli.e.CreateFlowchart(context.Background(), engine.CreateFlowchartCmd{Definition: definition})
			if err != nil {
				return err
			}

			c.Println(flowchart.Id)
			return nil
		},
	}

	c.Flags().StringVar(&fileName, "file", "", "Path to a flowchart JSON file")

	c.MarkFlagRequired("file")
	c.MarkFlagFilename("file", ".json")

	return &c
}

func newFlowchartGetCmd(cli *Cli) *cobra.Command {
	var cmd engine.GetFlowchartCmd

	c := cobra.Command{
		Use:   "get",
		Short: "Get a deployed flowchart",
		RunE: func(c *cobra.Command, _ []string) error {
			flowchart, err := cli.e.GetFlowchart(context.Background(), cmd)
			if err != nil {
				return err
			}

			t := newTable([]string{"ID", "NAME", "ELEMENTS", "CREATED AT"})
			t.addRow([]string{
				flowchart.Id,
				flowchart.Name,
				fmt.Sprintf("%d", flowchart.ElementCount),
				formatTime(flowchart.CreatedAt),
			})

			c.Print(t.format())
			return nil
		},
	}

	c.Flags().StringVar(&cmd.Id, "id", "", "Flowchart ID")

	c.MarkFlagRequired("id")

	return &c
}
