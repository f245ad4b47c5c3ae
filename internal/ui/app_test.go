package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lazyvibe/axial/internal/app"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/notify"
	"github.com/lazyvibe/axial/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu      sync.Mutex
	state   model.SessionState
	toggles int
	change  *notify.Signal
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		state:  model.SessionState{Phase: model.PhaseIdle, Config: model.DefaultSessionConfig()},
		change: notify.NewSignal(),
	}
}

func (f *fakeSession) State() model.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Toggle(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	return nil
}

func (f *fakeSession) UpdateConfig(cfg model.SessionConfig) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Phase != model.PhaseIdle {
		return false
	}
	f.state.Config = cfg
	return true
}

func (f *fakeSession) Changes() <-chan struct{} { return f.change.C() }

func (f *fakeSession) set(st model.SessionState) {
	f.mu.Lock()
	f.state = st
	f.mu.Unlock()
}

type fixture struct {
	app      App
	session  *fakeSession
	warnings *notify.PersistentStore
	toasts   *notify.Broker
	dir      string
	records  *store.JSONStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	records, err := store.NewJSONStore(dir)
	require.NoError(t, err)

	f := &fixture{
		session:  newFakeSession(),
		warnings: notify.NewPersistentStore(),
		toasts:   notify.NewBroker(nil),
		dir:      dir,
		records:  records,
	}
	t.Cleanup(f.toasts.ClearAll)

	f.app = New(Deps{
		Session:   f.session,
		Warnings:  f.warnings,
		Toasts:    f.toasts,
		Records:   records,
		Config:    app.DefaultConfig(),
		ConfigDir: dir,
		Log:       zerolog.Nop(),
	})
	f.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return f
}

func (f *fixture) update(msg tea.Msg) tea.Cmd {
	m, cmd := f.app.Update(msg)
	f.app = m.(App)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestChannelToggleWhileIdleSavesConfig(t *testing.T) {
	f := newFixture(t)

	cmd := f.update(runes("e"))
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, ConfigSavedMsg{}, msg)
	require.NoError(t, msg.(ConfigSavedMsg).Err)

	assert.True(t, f.session.State().Config.EyeStrain)

	saved, err := app.LoadConfig(f.dir)
	require.NoError(t, err)
	assert.True(t, saved.Session.EyeStrain)
	assert.True(t, saved.Session.Posture)
}

func TestChannelToggleIgnoredWhileActive(t *testing.T) {
	f := newFixture(t)
	f.session.set(model.SessionState{Phase: model.PhaseActive, SessionID: "s-1", StartTime: time.Now(), Config: model.DefaultSessionConfig()})
	f.update(SessionChangedMsg{})

	assert.Nil(t, f.update(runes("p")))
	assert.True(t, f.session.State().Config.Posture)
}

func TestToggleKeyRunsInBackground(t *testing.T) {
	f := newFixture(t)

	cmd := f.update(runes(" "))
	require.NotNil(t, cmd)
	assert.Equal(t, ToggleDoneMsg{}, cmd())
	assert.Equal(t, 1, f.session.toggles)
}

func TestToggleKeyIgnoredWhileBusy(t *testing.T) {
	f := newFixture(t)
	f.session.set(model.SessionState{Phase: model.PhaseStarting})
	f.update(SessionChangedMsg{})

	assert.Nil(t, f.update(runes(" ")))
}

func TestLastErrorIsShown(t *testing.T) {
	f := newFixture(t)
	f.session.set(model.SessionState{Phase: model.PhaseIdle, LastError: "failed to start session: connection refused"})
	f.update(SessionChangedMsg{})

	assert.Contains(t, f.app.View(), "failed to start session")
}

func TestTestKeyAndDismiss(t *testing.T) {
	f := newFixture(t)

	f.update(runes("t"))
	f.update(ToastsChangedMsg{})
	require.Equal(t, 4, f.toasts.Len())
	assert.Contains(t, f.app.View(), "Custom Notification")

	f.update(runes("x"))
	assert.Equal(t, 3, f.toasts.Len())
}

func TestWarningsRendered(t *testing.T) {
	f := newFixture(t)
	f.warnings.Set(model.WarningPosture, model.PersistentNotification{Title: "Posture check!", Body: "Sit back.", Score: 70})
	f.update(WarningsChangedMsg{})

	assert.Contains(t, f.app.View(), "Posture check!")

	f.warnings.Clear(model.WarningPosture)
	f.update(WarningsChangedMsg{})
	assert.NotContains(t, f.app.View(), "Posture check!")
}

func TestHistoryReloadsAfterStop(t *testing.T) {
	f := newFixture(t)
	f.session.set(model.SessionState{Phase: model.PhaseActive, SessionID: "s-1"})
	f.update(SessionChangedMsg{})

	require.NoError(t, f.records.Append(context.Background(), &model.SessionRecord{
		SessionID: "s-1",
		StartTime: time.Now().Add(-time.Minute),
		EndTime:   time.Now(),
	}))
	f.session.set(model.SessionState{Phase: model.PhaseIdle})
	cmd := f.update(SessionChangedMsg{})
	require.NotNil(t, cmd)

	// The batch holds the signal wait and the reload; run only the reload.
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	f.update(batch[1]())

	assert.Equal(t, 1, f.app.history.Len())
}

func TestQuit(t *testing.T) {
	f := newFixture(t)
	cmd := f.update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, f.app.View(), "See you soon")
}

func TestSmallWindow(t *testing.T) {
	f := newFixture(t)
	f.update(tea.WindowSizeMsg{Width: 30, Height: 10})
	assert.Contains(t, f.app.View(), "Window too small")
}
