package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/ui"
)

// Global flags
var (
	cfgFile string
	noColor bool
)

// Console flags
var (
	autorunFlag     bool
	modeFlag        string
	metricsAddrFlag string
)

// rootCmd runs the station console.
var rootCmd = &cobra.Command{
	Use:   "g2console",
	Short: "Live dashboard for a Grape 2 PSWS station",
	Long: `g2console shows live amplitude, frequency, magnetometer, temperature and GPS
readings from a Grape 2 receiver, and starts or stops its data controller.

Keys:
  r       start the data controller
  ctrl+p  toggle 1 hour / 24 hour min and max
  ctrl+x  stop the data controller and exit
  ctrl+c  exit, leaving the controller running
  ?       show help

Examples:
  g2console
  g2console -r
  g2console --mode hourly --metrics-addr :9273`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColors()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return consoleCommand(consoleOptions{
			Autorun:     autorunFlag,
			Mode:        modeFlag,
			MetricsAddr: metricsAddrFlag,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./g2console.yaml or ~/.config/g2console/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.Flags().BoolVarP(&autorunFlag, "autorun", "r", false, "start the data controller immediately")
	rootCmd.Flags().StringVar(&modeFlag, "mode", "", "initial min/max window: daily or hourly")
	rootCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9273")
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Execute runs the root command and exits with a non-zero status on error.
func Execute() {
	os.Exit(run(rootCmd, os.Args[1:]))
}

// run executes cmd with args and maps the outcome to an exit status.
func run(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	if code, ok := errors.GetExitCode(err); ok {
		return code
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err)
	return 1
}
