package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/psws/g2console/internal/config"
	"github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/ui"
)

var (
	initForce          bool
	initGlobal         bool
	initNonInteractive bool
)

// initCmd writes a g2console.yaml for this station.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a g2console.yaml configuration",
	Long: `Create a config file for this station.

Prompts for the sensor pipe, GPS source, data controller command and log
location, starting from the stock Grape 2 layout. With --non-interactive the
stock layout is written as is.

Examples:
  g2console init
  g2console init --global
  g2console init --non-interactive --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(".", config.ConfigFileName)
		if initGlobal {
			target = config.GlobalConfigPath()
		}
		return Init(cmd.OutOrStdout(), InitOptions{
			Path:           target,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
		})
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/g2console/config.yaml instead of ./g2console.yaml")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "skip prompts and write the stock station layout")
}

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Where to write the config
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use defaults
}

// Init creates a new config file.
func Init(w io.Writer, opts InitOptions) error {
	if opts.Path == "" {
		return errors.New(errors.ErrConfig,
			"No location for the config file",
			"Set HOME, or run without --global")
	}

	if _, err := os.Stat(opts.Path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", opts.Path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", opts.Path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if !opts.NonInteractive {
		if err := promptConfig(cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --non-interactive flag")
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(cfg, opts.Path); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s Created %s\n\n", ui.SuccessStyle().Render(ui.SymbolSuccess), opts.Path)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  g2console doctor  - Check the station")
	fmt.Fprintln(w, "  g2console gps     - Check the GPS receiver")
	fmt.Fprintln(w, "  g2console         - Start the console")
	return nil
}

// promptConfig edits cfg in place through a huh form.
func promptConfig(cfg *config.Config) error {
	baud := strconv.Itoa(cfg.GPS.Baud)
	command := strings.Join(cfg.Controller.Command, " ")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Sensor pipe").
				Description("FIFO the data controller writes JSON records to").
				Value(&cfg.Feed.Pipe).
				Validate(required("sensor pipe")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("GPS source").
				Description("auto uses gpsd when it is running, the serial port otherwise").
				Options(
					huh.NewOption("auto", "auto"),
					huh.NewOption("serial port", "serial"),
					huh.NewOption("gpsd", "gpsd"),
				).
				Value(&cfg.GPS.Source),
			huh.NewInput().
				Title("GPS serial device").
				Value(&cfg.GPS.Device),
			huh.NewInput().
				Title("GPS baud rate").
				Value(&baud).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n <= 0 {
						return fmt.Errorf("baud rate must be a positive number")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Data controller command").
				Description("Run when you press r in the console").
				Value(&command).
				Validate(required("controller command")),
			huh.NewConfirm().
				Title("Start the data controller automatically?").
				Value(&cfg.Controller.Autorun),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Log directory").
				Description("console.log is written here").
				Value(&cfg.Logging.Dir).
				Validate(required("log directory")),
			huh.NewSelect[string]().
				Title("Initial min/max window").
				Options(
					huh.NewOption("24 hours", "daily"),
					huh.NewOption("1 hour", "hourly"),
				).
				Value(&cfg.Display.Mode),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.GPS.Baud, _ = strconv.Atoi(strings.TrimSpace(baud))
	cfg.Controller.Command = strings.Fields(command)
	return nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}
