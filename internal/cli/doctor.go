package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/psws/g2console/internal/config"
	"github.com/psws/g2console/internal/doctor"
	"github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/proc"
	"github.com/psws/g2console/internal/ui"
)

var (
	doctorJSON bool
	doctorFix  bool
)

// doctorCmd runs the station preflight checks.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the station before starting the console",
	Long: `Run preflight checks and report anything that would stop the console.

Checks:
  - Config file location and validity
  - Sensor pipe exists and is a FIFO
  - Console log directory is writable
  - GPS receiver or gpsd is reachable
  - Data controller is installed, and whether it is running
  - Station node and RF gain files

Examples:
  g2console doctor
  g2console doctor --fix
  g2console doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.OutOrStdout(), proc.System{})
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "create the sensor pipe, log directory and config where missing")
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

// doctorCommand runs every check, applies fixes if asked, and reports. A
// failing check makes the command exit 1 without printing an error.
func doctorCommand(w io.Writer, procs proc.Table) error {
	// A config that fails to load is reported by the CONFIG checks; the
	// remaining checks fall back to defaults.
	cfg, _, err := config.LoadOrDefault(Config())
	if err != nil {
		cfg = nil
	}

	checks := doctor.NewChecks(Config(), cfg, procs)
	results := doctor.RunAll(checks)
	if doctorFix {
		results = doctor.FixAll(checks, results)
	}

	if doctorJSON {
		if err := outputDoctorJSON(w, checks, results); err != nil {
			return err
		}
	} else {
		outputDoctorText(w, checks, results)
	}

	if doctor.HasFailures(results) {
		return errors.NewExitError(1)
	}
	return nil
}

// groupResults orders results by doctor.Categories.
func groupResults(checks []doctor.Check, results []doctor.CheckResult) []CategoryOutput {
	grouped := make(map[string][]doctor.CheckResult)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], results[i])
	}

	out := make([]CategoryOutput, 0, len(grouped))
	for _, cat := range doctor.Categories {
		if rs, ok := grouped[cat]; ok {
			out = append(out, CategoryOutput{Name: cat, Results: rs})
		}
	}
	return out
}

// outputDoctorJSON outputs results in JSON format.
func outputDoctorJSON(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	counts := doctor.CountByStatus(results)
	output := DoctorOutput{
		Categories: groupResults(checks, results),
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			Fixable:  doctor.FixableCount(results),
			AllClear: !doctor.HasIssues(results),
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// outputDoctorText outputs results in human-readable format.
func outputDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	headerStyle := ui.HeaderStyle()
	mutedStyle := ui.MutedStyle()

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Grape2 Station Diagnostic Report"))
	fmt.Fprintln(w)

	for _, cat := range groupResults(checks, results) {
		fmt.Fprintln(w, headerStyle.Render(cat.Name))
		for _, r := range cat.Results {
			renderCheckResult(w, r, mutedStyle)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	if !doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), doctor.Summary(results))
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), doctor.Summary(results))
		if n := doctor.FixableCount(results); n > 0 && !doctorFix {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  Run with %s to fix %d of them.\n", mutedStyle.Render("--fix"), n)
		}
	}
	fmt.Fprintln(w)
}

// renderCheckResult renders a single check result.
func renderCheckResult(w io.Writer, result doctor.CheckResult, mutedStyle lipgloss.Style) {
	var symbol string
	var style lipgloss.Style

	switch result.Status {
	case doctor.StatusPass:
		symbol, style = ui.SymbolComplete, ui.SuccessStyle()
	case doctor.StatusWarn:
		symbol, style = ui.SymbolWarning, ui.WarningStyle()
	default:
		symbol, style = ui.SymbolFail, ui.ErrorStyle()
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", mutedStyle.Render(line))
		}
	}
}
