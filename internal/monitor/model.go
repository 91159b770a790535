package monitor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/psws/g2console/internal/controller"
	"github.com/psws/g2console/internal/feed"
	"github.com/psws/g2console/internal/gps"
	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/stats"
	"github.com/psws/g2console/internal/ui"
)

// Status lines shown in the footer.
const (
	StatusPrompt      = "<r> = start Data Controller"
	StatusStarting    = "Starting the Data Controller..."
	StatusExternal    = "Data Controller is running in another terminal"
	StatusOwned       = "<ctrl-x> = terminate Data Controller"
	StatusStopping    = "Stopping the Data Controller..."
	StatusTerminating = "Terminating the Console..."
)

var errNoController = errors.New("no data controller configured")

// DefaultRefresh is the redraw interval when Options.Refresh is zero.
const DefaultRefresh = 500 * time.Millisecond

// Controller is the part of the supervisor the dashboard drives.
type Controller interface {
	Detect(ctx context.Context) (controller.Ownership, error)
	Launch(ctx context.Context) error
	Stop() (controller.StopOutcome, error)
}

// Options wires the dashboard to live state.
type Options struct {
	Title      string
	Node       string
	RFGain     string
	Bank       *stats.Bank
	Latest     *feed.Latest
	GPS        *gps.Store
	Counters   *feed.Counters
	Controller Controller
	// Start launches the workers. Called once, on entering PhaseRunning.
	Start func()
	// FeedDone closes when the sensor stream ends.
	FeedDone <-chan struct{}
	Mode     stats.DisplayMode
	Refresh  time.Duration
	// Autorun launches the controller without waiting for 'r'.
	Autorun bool
	Log     logger.Logger
}

// Model is the Bubble Tea model for the station console.
type Model struct {
	opts Options
	ctx  context.Context
	log  logger.Logger

	phase    Phase
	mode     stats.DisplayMode
	owned    bool
	status   string
	lastErr  string
	showHelp bool

	detecting  bool
	launching  bool
	stopping   bool
	autoTried  bool
	startedRun bool

	width  int
	height int
	now    func() time.Time

	keys    keyMap
	help    help.Model
	spinner spinner.Model
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// detectMsg carries a process table lookup.
type detectMsg struct {
	own controller.Ownership
	err error
}

// launchMsg reports the outcome of starting the controller.
type launchMsg struct{ err error }

// stopMsg reports the outcome of asking the controller to stop.
type stopMsg struct {
	outcome controller.StopOutcome
	err     error
}

// feedDoneMsg signals that the sensor stream closed.
type feedDoneMsg struct{}

// NewModel creates the dashboard. ctx bounds controller detection and
// launch; it is not the workers' context.
func NewModel(ctx context.Context, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.Log == nil {
		opts.Log = logger.Noop()
	}
	if opts.Start == nil {
		opts.Start = func() {}
	}
	if opts.Title == "" {
		opts.Title = "Grape2 Console"
	}

	sp := spinner.New()
	sp.Spinner = ui.SpinnerFrames
	sp.Style = lipgloss.NewStyle()

	return Model{
		opts:    opts,
		ctx:     ctx,
		log:     opts.Log,
		phase:   PhaseAwaitingController,
		mode:    opts.Mode,
		status:  StatusPrompt,
		now:     time.Now,
		keys:    defaultKeyMap(),
		help:    newHelp(),
		spinner: sp,
	}
}

// Phase returns the current lifecycle phase.
func (m Model) Phase() Phase { return m.phase }

// Mode returns the min/max window in effect.
func (m Model) Mode() stats.DisplayMode { return m.mode }

// Status returns the footer status line.
func (m Model) Status() string { return m.status }

// LastError returns the last operator-facing error, if any.
func (m Model) LastError() string { return m.lastErr }

// Owned reports whether this console launched the running controller.
func (m Model) Owned() bool { return m.owned }

// Init starts the refresh tick and the first controller lookup.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.detectCmd())
}

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.phase == PhaseTerminating {
			return m, nil
		}
		if m.phase == PhaseAwaitingController && !m.detecting && !m.launching {
			m.detecting = true
			return m, tea.Batch(m.tickCmd(), m.detectCmd())
		}
		return m, m.tickCmd()

	case detectMsg:
		m.detecting = false
		return m.handleDetect(msg)

	case launchMsg:
		m.launching = false
		if msg.err != nil {
			m.log.Error("launching data controller: %v", msg.err)
			m.lastErr = firstLine(msg.err.Error())
			m.status = StatusPrompt
			return m, nil
		}
		m.owned = true
		m.lastErr = ""
		return m.enterRunning(evControllerLaunched)

	case stopMsg:
		m.stopping = false
		if msg.err != nil {
			m.log.Error("stopping data controller: %v", msg.err)
			m.lastErr = firstLine(msg.err.Error())
		}
		if msg.outcome == controller.StopDetach {
			return m.terminate(evDetach, StatusTerminating)
		}
		// The feed closes once the controller exits; feedDoneMsg ends the run.
		return m, nil

	case feedDoneMsg:
		m.log.Info("sensor feed ended")
		return m.terminate(evFeedClosed, StatusTerminating)

	case spinner.TickMsg:
		if !m.launching && !m.stopping {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.terminate(evInterrupt, StatusTerminating)

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		m.mode = m.mode.Toggle()
		return m, nil

	case key.Matches(msg, m.keys.Start):
		if m.phase != PhaseAwaitingController || m.launching {
			return m, nil
		}
		return m.startLaunch()

	case key.Matches(msg, m.keys.Stop):
		if m.phase != PhaseRunning || m.stopping {
			return m, nil
		}
		if !m.owned {
			return m.terminate(evDetach, StatusTerminating)
		}
		m.stopping = true
		m.status = StatusStopping
		return m, tea.Batch(m.stopCmd(), m.spinner.Tick)
	}
	return m, nil
}

func (m Model) handleDetect(msg detectMsg) (tea.Model, tea.Cmd) {
	if m.phase != PhaseAwaitingController || m.launching {
		return m, nil
	}
	if msg.err != nil {
		m.log.Warn("detecting data controller: %v", msg.err)
		m.lastErr = firstLine(msg.err.Error())
		return m, nil
	}
	switch msg.own {
	case controller.External:
		m.owned = false
		return m.enterRunning(evControllerFound)
	case controller.Owned:
		m.owned = true
		return m.enterRunning(evControllerFound)
	}
	if m.opts.Autorun && !m.autoTried {
		m.autoTried = true
		return m.startLaunch()
	}
	return m, nil
}

func (m Model) startLaunch() (tea.Model, tea.Cmd) {
	m.launching = true
	m.status = StatusStarting
	return m, tea.Batch(m.launchCmd(), m.spinner.Tick)
}

// enterRunning moves to PhaseRunning and starts the workers once.
func (m Model) enterRunning(e event) (tea.Model, tea.Cmd) {
	m.phase = m.phase.next(e)
	if m.phase != PhaseRunning {
		return m, nil
	}
	if m.owned {
		m.status = StatusOwned
	} else {
		m.status = StatusExternal
	}
	if m.startedRun {
		return m, nil
	}
	m.startedRun = true
	if m.owned {
		m.log.Info("data controller launched, starting readers")
	} else {
		m.log.Info("data controller found, starting readers")
	}
	m.opts.Start()
	return m, m.waitFeedCmd()
}

func (m Model) terminate(e event, status string) (tea.Model, tea.Cmd) {
	m.phase = m.phase.next(e)
	if m.phase != PhaseTerminating {
		return m, nil
	}
	m.status = status
	return m, tea.Quit
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) detectCmd() tea.Cmd {
	c, ctx := m.opts.Controller, m.ctx
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		own, err := c.Detect(ctx)
		return detectMsg{own: own, err: err}
	}
}

func (m Model) launchCmd() tea.Cmd {
	c, ctx := m.opts.Controller, m.ctx
	return func() tea.Msg {
		if c == nil {
			return launchMsg{err: errNoController}
		}
		return launchMsg{err: c.Launch(ctx)}
	}
}

func (m Model) stopCmd() tea.Cmd {
	c := m.opts.Controller
	return func() tea.Msg {
		outcome, err := c.Stop()
		return stopMsg{outcome: outcome, err: err}
	}
}

func (m Model) waitFeedCmd() tea.Cmd {
	done := m.opts.FeedDone
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		<-done
		return feedDoneMsg{}
	}
}

// firstLine trims structured errors down to their headline for the footer.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
