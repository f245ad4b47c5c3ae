package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lazyvibe/axial/internal/app"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/notify"
	"github.com/lazyvibe/axial/internal/store"
	"github.com/lazyvibe/axial/internal/ui/components/alerts"
	"github.com/lazyvibe/axial/internal/ui/components/history"
	"github.com/lazyvibe/axial/internal/ui/components/statusbar"
	"github.com/lazyvibe/axial/internal/ui/keys"
	"github.com/lazyvibe/axial/internal/ui/styles"
	"github.com/rs/zerolog"
)

const (
	minAppWidth  = 60
	minAppHeight = 20

	historyLimit = 50
)

// Session is the controller surface the UI drives.
type Session interface {
	State() model.SessionState
	Toggle(ctx context.Context) error
	UpdateConfig(cfg model.SessionConfig) bool
	Changes() <-chan struct{}
}

// Deps bundles what the App needs.
type Deps struct {
	Session   Session
	Warnings  *notify.PersistentStore
	Toasts    *notify.Broker
	Records   store.RecordStore
	Config    *app.Config
	ConfigDir string
	Log       zerolog.Logger
}

// App is the main application model.
type App struct {
	// Components
	statusBar statusbar.Model
	history   history.Model
	alerts    alerts.Model
	spinner   spinner.Model

	// State
	width    int
	height   int
	ready    bool
	quitting bool
	state    model.SessionState

	// Dependencies
	session   Session
	warnings  *notify.PersistentStore
	toasts    *notify.Broker
	records   store.RecordStore
	config    *app.Config
	configDir string
	log       zerolog.Logger
	keys      keys.KeyMap
	ctx       context.Context
	now       func() time.Time
}

// New creates a new application instance.
func New(d Deps) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(styles.PhaseBusy)

	return App{
		statusBar: statusbar.New(),
		history:   history.New(),
		alerts:    alerts.New(),
		spinner:   sp,
		state:     d.Session.State(),
		session:   d.Session,
		warnings:  d.Warnings,
		toasts:    d.Toasts,
		records:   d.Records,
		config:    d.Config,
		configDir: d.ConfigDir,
		log:       d.Log,
		keys:      keys.DefaultKeyMap(),
		ctx:       context.Background(),
		now:       time.Now,
	}
}

// Init initializes the application.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.waitForSession(),
		a.waitForWarnings(),
		a.waitForToasts(),
		a.spinner.Tick,
		ClockTick(),
	}
	if a.records != nil {
		cmds = append(cmds, LoadRecords(a.records, historyLimit))
	}
	return tea.Batch(cmds...)
}

func (a App) waitForSession() tea.Cmd {
	return WaitForSignal(a.session.Changes(), SessionChangedMsg{})
}

func (a App) waitForWarnings() tea.Cmd {
	return WaitForSignal(a.warnings.Changes(), WarningsChangedMsg{})
}

func (a App) waitForToasts() tea.Cmd {
	return WaitForSignal(a.toasts.Changes(), ToastsChangedMsg{})
}

// SetSize lays out the panels for a terminal of width x height.
func (a *App) SetSize(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.statusBar.SetWidth(width)

	leftWidth, rightWidth := a.columns()
	bodyHeight := a.bodyHeight()
	a.history.SetSize(leftWidth, bodyHeight-sessionPanelHeight)
	a.alerts.SetSize(rightWidth, bodyHeight)
}

// columns splits the width between the session column and the alerts.
func (a App) columns() (int, int) {
	left := a.width * 45 / 100
	left = max(left, 30)
	left = min(left, 60)
	return left, a.width - left
}

// bodyHeight is everything between the header and the status bar.
func (a App) bodyHeight() int {
	return max(a.height-2, 1)
}

func (a App) windowTooSmall() bool {
	return a.width < minAppWidth || a.height < minAppHeight
}

// toggleSession starts or stops the session in the background.
func (a *App) toggleSession() tea.Cmd {
	if a.state.Phase.Busy() {
		return nil
	}
	a.statusBar.ClearMessage()
	ctx := a.ctx
	s := a.session
	return func() tea.Msg {
		return ToggleDoneMsg{Err: s.Toggle(ctx)}
	}
}

// flipChannel toggles one monitoring channel while idle.
func (a *App) flipChannel(flip func(*model.SessionConfig)) tea.Cmd {
	if a.state.Phase != model.PhaseIdle {
		a.statusBar.SetMessage("Stop the session to change channels", false)
		return nil
	}
	cfg := a.state.Config
	flip(&cfg)
	if !a.session.UpdateConfig(cfg) {
		return nil
	}
	a.state.Config = cfg
	return a.saveConfig(cfg)
}

func (a *App) saveConfig(cfg model.SessionConfig) tea.Cmd {
	if a.config == nil || a.configDir == "" {
		return nil
	}
	a.config.Session = cfg
	snapshot := *a.config
	dir := a.configDir
	return func() tea.Msg {
		return ConfigSavedMsg{Err: app.SaveConfig(dir, &snapshot)}
	}
}

// dismissNewest removes the most recent toast.
func (a *App) dismissNewest() {
	if id := a.alerts.Newest(); id != "" {
		a.toasts.Remove(id)
	}
}
