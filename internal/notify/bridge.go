// Package notify implements the transient and persistent notification
// stores and the bridge to native OS notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/gen2brain/beeep"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Bridge surfaces notifications outside the application. Implementations
// are best-effort and must never report failures to the caller.
type Bridge interface {
	// RequestPermission prepares the platform notifier. Fire-and-forget.
	RequestPermission()
	// Show offers a notification; dedupTag identifies the logical alert.
	Show(title, body, dedupTag string)
}

// NopBridge discards everything.
type NopBridge struct{}

func (NopBridge) RequestPermission()   {}
func (NopBridge) Show(_, _, _ string) {}

// LogBridge writes every notification to a logger. Headless runs use it in
// place of, or next to, desktop popups.
type LogBridge struct {
	Log zerolog.Logger
}

func (LogBridge) RequestPermission() {}

func (b LogBridge) Show(title, body, dedupTag string) {
	b.Log.Info().Str("tag", dedupTag).Str("body", body).Msg(title)
}

type multiBridge []Bridge

// Multi fans notifications out to several bridges in order.
func Multi(bridges ...Bridge) Bridge {
	return multiBridge(bridges)
}

func (m multiBridge) RequestPermission() {
	for _, b := range m {
		b.RequestPermission()
	}
}

func (m multiBridge) Show(title, body, dedupTag string) {
	for _, b := range m {
		b.Show(title, body, dedupTag)
	}
}

const (
	defaultDedupWindow = 30 * time.Second
	defaultRatePerMin  = 12
	maxBodyLen         = 800
)

// notifyFunc matches beeep.Notify.
type notifyFunc func(title, message string, icon any) error

// NativeBridge shows desktop popups and optionally forwards them to a webhook.
type NativeBridge struct {
	cfg     model.NotificationConfig
	client  *http.Client
	log     zerolog.Logger
	seen    *cache.Cache
	limiter *rate.Limiter
	notify  notifyFunc

	mu        sync.Mutex
	permitted bool
	wg        sync.WaitGroup
}

// NewNativeBridge creates a NativeBridge with sensible defaults.
func NewNativeBridge(cfg model.NotificationConfig, log zerolog.Logger) *NativeBridge {
	window := defaultDedupWindow
	if cfg.DedupWindowSec > 0 {
		window = time.Duration(cfg.DedupWindowSec) * time.Second
	}
	perMin := cfg.RatePerMin
	if perMin <= 0 {
		perMin = defaultRatePerMin
	}
	return &NativeBridge{
		cfg: cfg,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		log:     log,
		seen:    cache.New(window, 2*window),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
		notify:  beeep.Notify,
	}
}

// RequestPermission marks the bridge ready. beeep needs no prompt on the
// supported platforms; the app name is set so popups are attributed.
func (b *NativeBridge) RequestPermission() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.permitted {
		return
	}
	beeep.AppName = "Axial"
	b.permitted = true
	b.log.Debug().Bool("desktop", b.cfg.Desktop).Bool("webhook", b.cfg.WebhookURL != "").Msg("native notifications ready")
}

// Show delivers the notification asynchronously. A tag already shown within
// the dedup window, or a popup over the rate limit, is dropped.
func (b *NativeBridge) Show(title, body, dedupTag string) {
	if !b.cfg.Desktop && b.cfg.WebhookURL == "" {
		return
	}
	if dedupTag != "" {
		if err := b.seen.Add(dedupTag, struct{}{}, cache.DefaultExpiration); err != nil {
			b.log.Debug().Str("tag", dedupTag).Msg("duplicate notification suppressed")
			return
		}
	}
	if !b.limiter.Allow() {
		b.log.Debug().Str("tag", dedupTag).Msg("notification rate limited")
		return
	}

	title, body = normalize(title, body)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.deliver(title, body, dedupTag)
	}()
}

// Wait blocks until in-flight deliveries finish.
func (b *NativeBridge) Wait() {
	b.wg.Wait()
}

func (b *NativeBridge) deliver(title, body, tag string) {
	if b.cfg.Desktop {
		if err := b.notify(title, body, ""); err != nil {
			b.log.Debug().Err(err).Msg("desktop notification unavailable")
		}
	}

	if b.cfg.WebhookURL == "" {
		return
	}
	payload := map[string]any{
		"title":     title,
		"body":      body,
		"tag":       tag,
		"timestamp": time.Now().Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.WebhookURL, bytes.NewReader(data))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Debug().Err(err).Msg("webhook delivery failed")
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func normalize(title, body string) (string, string) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Axial"
	}
	body = strings.TrimSpace(body)
	body = ansi.Truncate(body, maxBodyLen, "...")
	return title, body
}
