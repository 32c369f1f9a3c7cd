/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the Studio Onboarding server. The default `serve`
  command runs the HTTP API; `templates` and `schedule` print tranche plans
  without starting anything.

COMMANDS:
  serve                      Run the HTTP API (graceful shutdown on SIGINT/SIGTERM)
  templates [project-type]   Print wizard tranche templates, optionally priced
  schedule <format>          Print the admin lock-time schedule with GST

CONFIGURATION (lowest to highest precedence):
  1. Built-in defaults (port 8080, studio.db, info logging)
  2. TOML file: --config path, or ./studio.toml
  3. STUDIO_* environment variables
  4. Flags on serve: --port, --db, --log-level, --log-format

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_seconds)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server serve --db="./data/studio.db"

  # Run with in-memory database on another port
  STUDIO_SERVER_PORT=3000 ./server serve --db=":memory:"

  # Price the long-series plan for a 2 Cr budget
  ./server templates longSeries --budget 20000000

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
