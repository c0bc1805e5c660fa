package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/monostax/bpmflow/worker"
	"github.com/spf13/cobra"
)

func newWorkerCmd(cli *Cli) *cobra.Command {
	var (
		interval time.Duration
		cron     string
		limit    int
	)

	c := cobra.Command{
		Use:   "worker",
		Short: "Run a worker that periodically proceeds due flow nodes",
		RunE: func(c *cobra.Command, _ []string) error {
			w, err := worker.New(cli.e, func(o *worker.Options) {
				if c.Flags().Changed("interval") {
					o.Interval = interval
				} else if cli.config.Worker.Interval != "" {
					parsed, err := time.ParseDuration(cli.config.Worker.Interval)
					if err == nil {
						o.Interval = parsed
					}
				}

				if cron != "" {
					o.Cron = cron
				} else if cli.config.Worker.Cron != "" {
					o.Cron = cli.config.Worker.Cron
				}

				if limit > 0 {
					o.Limit = limit
				} else if cli.config.Worker.Limit > 0 {
					o.Limit = cli.config.Worker.Limit
				}
			})
			if err != nil {
				return err
			}

			w.Execute()
			defer w.Stop()

			signalC := make(chan os.Signal, 1)
			signal.Notify(signalC, syscall.SIGINT, syscall.SIGTERM)
			<-signalC

			return nil
		},
	}

	c.Flags().DurationVar(&interval, "interval", 60*time.Second, "Interval between ticks")
	c.Flags().StringVar(&cron, "cron", "", "Cron schedule, evaluated instead of the interval")
	c.Flags().IntVar(&limit, "limit", 0, "Maximum number of flow nodes to proceed per tick")

	return &c
}
