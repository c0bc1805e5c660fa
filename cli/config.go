package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// A config provides engine settings, read from an optional YAML file.
type config struct {
	DatabaseUrl       string `yaml:"databaseUrl"`
	EngineId          string `yaml:"engineId"`
	DefaultQueryLimit int    `yaml:"defaultQueryLimit"`

	Worker workerConfig `yaml:"worker"`
}

type workerConfig struct {
	Interval string `yaml:"interval"` // Go duration, e.g. "30s"
	Cron     string `yaml:"cron"`     // cron schedule, evaluated instead of the interval
	Limit    int    `yaml:"limit"`
}

func loadConfig(fileName string) (config, error) {
	var c config
	if fileName == "" {
		return c, nil
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		return c, fmt.Errorf("failed to read config file %s: %v", fileName, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to unmarshal config file %s: %v", fileName, err)
	}
	return c, nil
}
