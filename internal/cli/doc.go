// Package cli implements the g2console command-line interface.
//
// The root command runs the station console. Subcommands cover the jobs
// around it:
//
//	g2console            - Live station dashboard
//	g2console gps        - GPS-only diagnostic dashboard
//	g2console doctor     - Preflight checks, with --fix and --json
//	g2console init       - Create g2console.yaml
//	g2console version    - Build information
//	g2console completion - Shell completion scripts
//
// Both dashboards follow the same sequence: load and validate config, open
// the console log, build an app.App over the configured sources, run a
// Bubble Tea program, then cancel and join the workers within
// shutdown_grace.
//
// # Flag Handling
//
// Global flags (--config, --no-color) are defined on the root command and
// available to all subcommands. Console flags (-r/--autorun, --mode,
// --metrics-addr) override the matching config keys for one run.
package cli
