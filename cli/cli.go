package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/monostax/bpmflow/engine"
	"github.com/monostax/bpmflow/engine/pg"
	"github.com/monostax/bpmflow/formula"
	"github.com/spf13/cobra"
)

const (
	program   = "bpmflow"
	envPrefix = "BPMFLOW_"

	envDatabaseUrl = envPrefix + "DATABASE_URL"

	noEngineRequired = "noEngineRequired" // annotation, indicating that no engine is required to run the command
)

func New(version string) *Cli {
	cli := Cli{version: version}

	cli.rootCmd = newRootCmd(&cli)

	return &cli
}

type Cli struct {
	version string

	rootCmd *cobra.Command

	e            engine.Engine
	config       config
	debugEnabled bool
}

func (c *Cli) Execute() int {
	defer func() {
		if c.e != nil {
			c.e.Shutdown()
		}
	}()

	if err := c.rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func (c *Cli) help(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

func newRootCmd(cli *Cli) *cobra.Command {
	var (
		configFileName string
		databaseUrl    string
	)

	c := cobra.Command{
		Use:   program,
		Short: "A CLI for flowchart process engines",
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			c.SilenceUsage = true

			if _, ok := c.Annotations[noEngineRequired]; ok {
				return nil
			}
			if cli.e != nil {
				return nil // skip engine creation when testing
			}

			config, err := loadConfig(configFileName)
			if err != nil {
				return err
			}
			cli.config = config

			if databaseUrl == "" {
				databaseUrl = config.DatabaseUrl
			}
			if databaseUrl == "" {
				databaseUrl = os.Getenv(envDatabaseUrl)
			}
			if databaseUrl == "" {
				return fmt.Errorf("no database URL: use --database-url, a config file or %s", envDatabaseUrl)
			}

			logLevel := hclog.Warn
			if cli.debugEnabled {
				logLevel = hclog.Debug
			}

			e, err := pg.New(databaseUrl, func(o *pg.Options) {
				if config.EngineId != "" {
					o.Common.EngineId = config.EngineId
				}
				if config.DefaultQueryLimit > 0 {
					o.Common.DefaultQueryLimit = config.DefaultQueryLimit
				}

				o.Common.Logger = hclog.New(&hclog.LoggerOptions{
					Name:  program,
					Level: logLevel,
				})
				o.Common.Formula = formula.New()
			})
			if err != nil {
				return fmt.Errorf("failed to create engine: %v", err)
			}

			cli.e = e
			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			return cli.help(c, args)
		},
	}

	c.PersistentFlags().StringVar(&configFileName, "config", "", "Path to a YAML configuration file")
	c.PersistentFlags().StringVar(&databaseUrl, "database-url", "", "Postgres database URL")
	c.PersistentFlags().BoolVar(&cli.debugEnabled, "debug", false, "Enable debug logging")

	c.AddCommand(newFlowchartCmd(cli))
	c.AddCommand(newProcessCmd(cli))
	c.AddCommand(newFlowNodeCmd(cli))
	c.AddCommand(newSignalCmd(cli))
	c.AddCommand(newDueCmd(cli))
	c.AddCommand(newUserTaskCmd(cli))
	c.AddCommand(newWorkerCmd(cli))
	c.AddCommand(newVersionCmd(cli))

	return &c
}

func newVersionCmd(cli *Cli) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version",
		Annotations: map[string]string{noEngineRequired: ""},
		RunE: func(c *cobra.Command, _ []string) error {
			c.Println(cli.version)
			return nil
		},
	}
}
