package doctor

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status   CheckStatus
		expected string
	}{
		{StatusPass, "pass"},
		{StatusWarn, "warn"},
		{StatusFail, "fail"},
		{CheckStatus(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.String())
		})
	}
}

func TestCheckResultJSON(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "feed_pipe", Status: StatusFail, Message: "missing", Fixable: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"feed_pipe","status":"fail","message":"missing","fixable":true}`, string(data))
}

// mockCheck is a test implementation of Check. Fix flips the result to pass
// unless fixErr is set.
type mockCheck struct {
	name     string
	result   CheckResult
	fixErr   error
	fixCalls int
}

func (m *mockCheck) Name() string     { return m.name }
func (m *mockCheck) Category() string { return "TEST" }
func (m *mockCheck) Run() CheckResult { return m.result }
func (m *mockCheck) Fix() error {
	m.fixCalls++
	if m.fixErr != nil {
		return m.fixErr
	}
	m.result.Status = StatusPass
	return nil
}

func TestRunAll(t *testing.T) {
	checks := []Check{
		&mockCheck{name: "check1", result: CheckResult{Name: "check1", Status: StatusPass}},
		&mockCheck{name: "check2", result: CheckResult{Name: "check2", Status: StatusFail}},
	}

	results := RunAll(checks)
	require.Len(t, results, 2)
	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, StatusFail, results[1].Status)
	assert.True(t, HasFailures(results))
	assert.True(t, HasIssues(results))
}

func TestFixAll(t *testing.T) {
	fixable := &mockCheck{name: "fixable", result: CheckResult{Status: StatusFail, Fixable: true}}
	broken := &mockCheck{name: "broken", result: CheckResult{Status: StatusFail, Fixable: true}, fixErr: errors.New("read-only")}
	manual := &mockCheck{name: "manual", result: CheckResult{Status: StatusFail}}
	passing := &mockCheck{name: "passing", result: CheckResult{Status: StatusPass, Fixable: true}}

	checks := []Check{fixable, broken, manual, passing}
	results := FixAll(checks, RunAll(checks))

	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, StatusFail, results[1].Status)
	assert.Contains(t, results[1].Suggestion, "read-only")
	assert.Equal(t, StatusFail, results[2].Status)

	assert.Equal(t, 1, fixable.fixCalls)
	assert.Equal(t, 1, broken.fixCalls)
	assert.Zero(t, manual.fixCalls)
	assert.Zero(t, passing.fixCalls)
}

func TestCountsAndSummary(t *testing.T) {
	results := []CheckResult{
		{Status: StatusPass},
		{Status: StatusWarn, Fixable: true},
		{Status: StatusFail},
		{Status: StatusPass, Fixable: true},
	}

	counts := CountByStatus(results)
	assert.Equal(t, 2, counts[StatusPass])
	assert.Equal(t, 1, counts[StatusWarn])
	assert.Equal(t, 1, counts[StatusFail])
	assert.Equal(t, 1, FixableCount(results))
	assert.Equal(t, "2 issues found", Summary(results))
	assert.Equal(t, "1 issue found", Summary(results[:2]))
	assert.Equal(t, "Everything looks good", Summary(results[:1]))
	assert.False(t, HasIssues(results[:1]))
	assert.False(t, HasFailures(results[:2]))
}
