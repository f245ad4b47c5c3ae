// Axial - posture and eye strain coach for the terminal.
// Drives a remote detection session and surfaces its warnings as
// in-app and desktop notifications.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lazyvibe/axial/internal/app"
	"github.com/lazyvibe/axial/internal/logging"
	"github.com/lazyvibe/axial/internal/notify"
	"github.com/lazyvibe/axial/internal/service"
	"github.com/lazyvibe/axial/internal/session"
	"github.com/lazyvibe/axial/internal/store"
	"github.com/lazyvibe/axial/internal/stream"
	"github.com/lazyvibe/axial/internal/ui"
	"github.com/spf13/cobra"
)

const (
	appName    = "Axial"
	appVersion = "0.1.0"

	shutdownTimeout = 5 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags.
type rootOptions struct {
	configDir string
	apiURL    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "axial",
		Short:         "Posture and eye strain coach",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", app.DefaultConfigDir(), "configuration directory")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "detection service URL (overrides config)")

	root.AddCommand(newWatchCmd(opts))
	root.AddCommand(newNotifyTestCmd(opts))
	root.AddCommand(newMockServerCmd())
	return root
}

// stack is the wired application.
type stack struct {
	configDir  string
	config     *app.Config
	log        *logging.Logger
	bridge     *notify.NativeBridge
	warnings   *notify.PersistentStore
	toasts     *notify.Broker
	records    *store.JSONStore
	controller *session.Controller
}

// newStack loads configuration and builds every component. Bridges returned
// by extra receive notifications alongside the native one.
func newStack(opts *rootOptions, console bool, extra func(*logging.Logger) []notify.Bridge) (*stack, error) {
	app.LoadDotEnv()

	config, err := app.LoadConfig(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.apiURL != "" {
		config.APIURL = opts.apiURL
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logging.New(logging.Options{
		Level:   config.LogLevel,
		File:    config.LogPath(opts.configDir),
		Console: console,
	})

	records, err := store.NewJSONStore(opts.configDir)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("open session history: %w", err)
	}

	bridge := notify.NewNativeBridge(config.Notifications, log.Component("bridge"))
	var sink notify.Bridge = bridge
	if extra != nil {
		sink = notify.Multi(append([]notify.Bridge{bridge}, extra(log)...)...)
	}
	sink.RequestPermission()

	warnings := notify.NewPersistentStore()
	toasts := notify.NewBroker(sink,
		notify.WithMaxVisible(config.MaxToasts),
		notify.WithLogger(log.Component("toasts")),
	)

	controller := session.NewController(
		service.NewClient(config.APIURL, config.RequestTimeout()),
		stream.NewWSDialer(config.StreamBase(), log.Component("stream")),
		warnings,
		toasts,
		session.WithConfig(config.Session),
		session.WithRecords(records),
		session.WithLogger(log.Component("session")),
	)

	log.Info().
		Str("version", appVersion).
		Str("api_url", config.APIURL).
		Str("stream_url", config.StreamBase()).
		Msg("axial starting")

	return &stack{
		configDir:  opts.configDir,
		config:     config,
		log:        log,
		bridge:     bridge,
		warnings:   warnings,
		toasts:     toasts,
		records:    records,
		controller: controller,
	}, nil
}

// Close stops any running session and releases resources.
func (s *stack) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.controller.Close(ctx); err != nil {
		s.log.Warn().Err(err).Msg("session shutdown")
	}
	s.bridge.Wait()
	_ = s.records.Close()
	s.log.Info().Msg("axial stopped")
	_ = s.log.Close()
}

func runTUI(opts *rootOptions) error {
	s, err := newStack(opts, false, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	application := ui.New(ui.Deps{
		Session:   s.controller,
		Warnings:  s.warnings,
		Toasts:    s.toasts,
		Records:   s.records,
		Config:    s.config,
		ConfigDir: s.configDir,
		Log:       s.log.Component("ui"),
	})

	p := tea.NewProgram(application, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run %s: %w", appName, err)
	}
	return nil
}
