package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazyvibe/axial/internal/logging"
	"github.com/lazyvibe/axial/internal/mockservice"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/notify"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run a session without the TUI, logging every alert",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts)
		},
	}
}

func runWatch(ctx context.Context, opts *rootOptions) error {
	s, err := newStack(opts, true, func(log *logging.Logger) []notify.Bridge {
		return []notify.Bridge{notify.LogBridge{Log: log.Component("alert")}}
	})
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.controller.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	st := s.controller.State()
	s.log.Info().Str("session_id", st.SessionID).Msg("watching, press Ctrl+C to stop")

	warnLog := s.log.Component("warning")
	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := s.controller.Stop(stopCtx); err != nil {
				return fmt.Errorf("stop session: %w", err)
			}
			return nil

		case <-s.warnings.Changes():
			for _, c := range model.WarningCategories {
				if w, ok := s.warnings.Get(c); ok {
					warnLog.Warn().Str("category", string(c)).Int("score", w.Score).Str("body", w.Body).Msg(w.Title)
				}
			}

		case <-s.controller.Changes():
			st := s.controller.State()
			if st.LastError != "" {
				s.log.Error().Str("phase", string(st.Phase)).Msg(st.LastError)
			}
			if st.Phase == model.PhaseIdle {
				return errors.New("session ended")
			}
		}
	}
}

func newNotifyTestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test",
		Short: "Fire one sample notification of each kind",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newStack(opts, true, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			ids := notify.FireSamples(s.toasts)
			s.bridge.Wait()
			s.toasts.ClearAll()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sent %d notifications\n", len(ids))
			return nil
		},
	}
}

func newMockServerCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
		seed     uint64
		level    string
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a simulated detection service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logging.New(logging.Options{Level: level, Console: true})
			defer log.Close()

			opts := []mockservice.Option{mockservice.WithInterval(interval)}
			if seed != 0 {
				opts = append(opts, mockservice.WithSeed(seed))
			}
			svc := mockservice.NewServer(log.Component("mock"), opts...)
			go svc.Run(ctx)

			srv := &http.Server{
				Addr:              addr,
				Handler:           svc.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Msg("mock detection service listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			log.Info().Msg("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "simulator sample interval")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible runs (0 = time based)")
	cmd.Flags().StringVar(&level, "log-level", "info", "log level")
	return cmd
}
