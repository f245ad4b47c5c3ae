package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/notify"
	"github.com/lazyvibe/axial/internal/session"
)

// Update handles all messages for the application.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeys(msg)

	case SessionChangedMsg:
		prev := a.state.Phase
		a.state = a.session.State()
		a.statusBar.SetPhase(a.state.Phase)
		if a.state.LastError != "" {
			a.statusBar.SetMessage(a.state.LastError, true)
		}
		cmds := []tea.Cmd{a.waitForSession()}
		if prev != model.PhaseIdle && a.state.Phase == model.PhaseIdle && a.records != nil {
			cmds = append(cmds, LoadRecords(a.records, historyLimit))
		}
		return a, tea.Batch(cmds...)

	case WarningsChangedMsg:
		a.alerts.SetWarnings(a.warnings.Posture(), a.warnings.Blink())
		return a, a.waitForWarnings()

	case ToastsChangedMsg:
		a.alerts.SetToasts(a.toasts.List())
		return a, a.waitForToasts()

	case RecordsLoadedMsg:
		if msg.Err != nil {
			a.log.Warn().Err(msg.Err).Msg("failed to load session history")
			a.statusBar.SetMessage("Error loading history: "+msg.Err.Error(), true)
			return a, nil
		}
		a.history.SetRecords(msg.Records)
		return a, nil

	case ToggleDoneMsg:
		// Failures already surface through LastError.
		if msg.Err != nil && !errors.Is(msg.Err, session.ErrStartAborted) {
			a.log.Debug().Err(msg.Err).Msg("toggle finished with error")
		}
		return a, nil

	case ConfigSavedMsg:
		if msg.Err != nil {
			a.log.Warn().Err(msg.Err).Msg("failed to save config")
			a.statusBar.SetMessage("Could not save settings: "+msg.Err.Error(), true)
		}
		return a, nil

	case ClockTickMsg:
		return a, ClockTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a App) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return a, tea.Quit

	case key.Matches(msg, a.keys.Toggle):
		return a, a.toggleSession()

	case key.Matches(msg, a.keys.Posture):
		return a, a.flipChannel(func(c *model.SessionConfig) { c.Posture = !c.Posture })

	case key.Matches(msg, a.keys.EyeStrain):
		return a, a.flipChannel(func(c *model.SessionConfig) { c.EyeStrain = !c.EyeStrain })

	case key.Matches(msg, a.keys.Distractions):
		return a, a.flipChannel(func(c *model.SessionConfig) { c.Distractions = !c.Distractions })

	case key.Matches(msg, a.keys.Test):
		notify.FireSamples(a.toasts)
		a.statusBar.SetMessage("Sent test notifications", false)
		return a, nil

	case key.Matches(msg, a.keys.Dismiss):
		a.dismissNewest()
		return a, nil

	case key.Matches(msg, a.keys.Up):
		a.history.CursorUp()
		return a, nil

	case key.Matches(msg, a.keys.Down):
		a.history.CursorDown()
		return a, nil
	}
	return a, nil
}
