// The bpmflow command manages flowcharts and processes of a Postgres backed
// engine.
//
// Usage:
//
//	bpmflow flowchart create --file ./order.json
//	bpmflow process start --flowchart-id order --target-type Order --target-id 4711
//	bpmflow worker --interval 30s
//
// The database URL is taken from --database-url, a YAML config file or the
// BPMFLOW_DATABASE_URL environment variable.
package main

import (
	"os"

	"github.com/monostax/bpmflow/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.New(version).Execute())
}
