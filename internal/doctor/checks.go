// Package doctor runs preflight checks against a station before the console
// starts: config, sensor pipe, log directory, GPS source, data controller and
// station metadata files.
package doctor

import "fmt"

// CheckStatus represents the result status of a check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

// String returns a human-readable status string.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name written by MarshalText.
func (s *CheckStatus) UnmarshalText(b []byte) error {
	for _, st := range []CheckStatus{StatusPass, StatusWarn, StatusFail} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", b)
}

// Check categories, in report order.
const (
	CategoryConfig     = "CONFIG"
	CategoryFeed       = "FEED"
	CategoryLogs       = "LOGS"
	CategoryGPS        = "GPS"
	CategoryController = "CONTROLLER"
	CategoryStation    = "STATION"
)

// Categories lists every category in the order reports show them.
var Categories = []string{
	CategoryConfig,
	CategoryFeed,
	CategoryLogs,
	CategoryGPS,
	CategoryController,
	CategoryStation,
}

// CheckResult contains the outcome of running a check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Fixable    bool        `json:"fixable,omitempty"` // Whether --fix can address this
}

// Check defines the interface for diagnostic checks.
type Check interface {
	// Name returns the check's identifier.
	Name() string

	// Category returns one of the Category constants.
	Category() string

	// Run executes the check and returns the result.
	Run() CheckResult

	// Fix attempts to repair the issue. Checks that cannot fix anything
	// return nil.
	Fix() error
}

// RunAll executes all checks in order and returns the results.
func RunAll(checks []Check) []CheckResult {
	results := make([]CheckResult, len(checks))
	for i, check := range checks {
		results[i] = check.Run()
	}
	return results
}

// FixAll runs Fix on every fixable, failing result and re-runs its check.
// Fix errors are left in place of the original suggestion.
func FixAll(checks []Check, results []CheckResult) []CheckResult {
	for i, r := range results {
		if !r.Fixable || r.Status == StatusPass {
			continue
		}
		if err := checks[i].Fix(); err != nil {
			results[i].Suggestion = fmt.Sprintf("Automatic fix failed: %v", err)
			continue
		}
		results[i] = checks[i].Run()
	}
	return results
}

// CountByStatus counts results by status.
func CountByStatus(results []CheckResult) map[CheckStatus]int {
	counts := make(map[CheckStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// HasFailures returns true if any result has a fail status.
func HasFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// HasIssues returns true if any result has a fail or warn status.
func HasIssues(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail || r.Status == StatusWarn {
			return true
		}
	}
	return false
}

// FixableCount returns the number of issues that can be fixed automatically.
func FixableCount(results []CheckResult) int {
	count := 0
	for _, r := range results {
		if r.Fixable && (r.Status == StatusFail || r.Status == StatusWarn) {
			count++
		}
	}
	return count
}

// Summary returns a summary string of the check results.
func Summary(results []CheckResult) string {
	counts := CountByStatus(results)
	total := counts[StatusWarn] + counts[StatusFail]
	if total == 0 {
		return "Everything looks good"
	}
	return fmt.Sprintf("%d issue%s found", total, pluralize(total))
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
