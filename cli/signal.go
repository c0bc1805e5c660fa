package cli

import (
	"context"
	"fmt"

	"github.com/monostax/bpmflow/engine"
	"github.com/spf13/cobra"
)

func newSignalCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "signal",
		Short:       "Send signals",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newSignalSendCmd(cli))

	return &c
}

func newSignalSendCmd(cli *Cli) *cobra.Command {
	var (
		parameterV []string

		cmd engine.SendSignalCmd
	)

	c := cobra.Command{
		Use:   "send",
		Short: "Send a signal to all subscribed flow nodes",
		RunE: func(c *cobra.Command, _ []string) error {
			parameters, err := parseVariables(parameterV)
			if err != nil {
				return err
			}
			cmd.Parameters = parameters

			notified, err := cli.e.SendSignal(context.Background(), cmd)
			if err != nil {
				return err
			}

			c.Println(fmt.Sprintf("notified %d subscriber(s)", notified))
			return nil
		},
	}

	c.Flags().StringVar(&cmd.Name, "name", "", "Signal name")
	c.Flags().StringArrayVar(&parameterV, "parameter", nil, "Signal parameter, consisting of key and value")

	c.MarkFlagRequired("name")

	return &c
}
