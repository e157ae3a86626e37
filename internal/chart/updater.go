package chart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"StockTracker/internal/collector"
	"StockTracker/internal/model"
	"StockTracker/internal/scheduler"
)

// ErrFetch marks a transient bar fetch failure. The series and viewport are left as they were.
var ErrFetch = errors.New("bar fetch failed")

// Fetcher returns one session's intraday bars for a symbol.
type Fetcher interface {
	FetchSessionBars(ctx context.Context, symbol string, day time.Time) (model.BarSeries, error)
}

// Frame describes an applied series replacement.
type Frame struct {
	Version uint64
	Symbol  string
	Series  model.BarSeries
	Visible *model.ViewportRange // restored zoom, nil for the default range
}

// Updater keeps one symbol's session bars current in a Renderer without moving the
// viewer's zoom window.
type Updater struct {
	fetcher    Fetcher
	renderer   Renderer
	log        *zap.SugaredLogger
	clock      clockwork.Clock
	sessionDay func(time.Time) time.Time
	pollEvery  time.Duration
	listener   func(Frame)
	onError    func(error)
	poller     *scheduler.Poller

	mu      sync.Mutex
	symbol  string
	series  model.BarSeries
	polling bool
	gen     uint64
	genCtx  context.Context
	cancel  context.CancelFunc
	version uint64

	notifyMu  sync.Mutex
	delivered uint64
}

type Option func(*Updater)

func WithClock(c clockwork.Clock) Option { return func(u *Updater) { u.clock = c } }

func WithPollInterval(d time.Duration) Option { return func(u *Updater) { u.pollEvery = d } }

// WithSessionDay overrides how the bars window is picked from the current time.
func WithSessionDay(fn func(time.Time) time.Time) Option {
	return func(u *Updater) { u.sessionDay = fn }
}

func WithListener(fn func(Frame)) Option { return func(u *Updater) { u.listener = fn } }

func WithErrorHandler(fn func(error)) Option { return func(u *Updater) { u.onError = fn } }

// NewUpdater creates an Updater drawing into r, with polling disabled and no symbol.
func NewUpdater(fetcher Fetcher, r Renderer, log *zap.SugaredLogger, opts ...Option) *Updater {
	u := &Updater{
		fetcher:    fetcher,
		renderer:   r,
		log:        log,
		clock:      clockwork.NewRealClock(),
		sessionDay: collector.SessionDay,
		pollEvery:  time.Minute,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.genCtx, u.cancel = context.WithCancel(context.Background())
	u.poller = scheduler.NewPoller("chart", u.pollEvery, u.poll, log)
	return u
}

// SetSymbol switches the chart to symbol, clearing the series and zoom. Fetches bound to
// the previous symbol are canceled and their results discarded. It does not fetch.
func (u *Updater) SetSymbol(symbol string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if symbol == u.symbol {
		return
	}
	u.symbol = symbol
	u.series = nil
	u.invalidateLocked()
	u.renderer.SetSeries(model.BarSeries{})
	u.renderer.ResetZoom()
	u.log.Debugf("chart symbol set to %q", symbol)
}

// SetPollingEnabled arms or cancels the refresh timer. Enabling refreshes immediately only
// when the series is empty. Disabling also discards any fetch still in flight.
func (u *Updater) SetPollingEnabled(enabled bool) {
	u.mu.Lock()
	if enabled == u.polling {
		u.mu.Unlock()
		return
	}
	u.polling = enabled
	if !enabled {
		u.invalidateLocked()
	}
	immediate := enabled && u.symbol != "" && len(u.series) == 0
	u.mu.Unlock()

	if enabled {
		u.poller.Start(immediate)
	} else {
		u.poller.Stop()
	}
}

// Stop disables polling and discards in-flight fetches. Idempotent.
func (u *Updater) Stop() {
	u.SetPollingEnabled(false)
	u.mu.Lock()
	u.invalidateLocked()
	u.mu.Unlock()
}

func (u *Updater) poll() {
	if err := u.Refresh(context.Background()); err != nil {
		u.log.Warnf("chart refresh: %v", err)
		if u.onError != nil {
			u.onError(err)
		}
	}
}

// Refresh fetches the session's bars for the current symbol and swaps them in. The
// renderer's zoom is read before the swap and written back after it.
func (u *Updater) Refresh(ctx context.Context) error {
	u.mu.Lock()
	symbol, gen, genCtx := u.symbol, u.gen, u.genCtx
	u.mu.Unlock()

	if symbol == "" {
		return nil
	}

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(genCtx, cancel)
	defer stop()

	bars, err := u.fetcher.FetchSessionBars(fctx, symbol, u.sessionDay(u.clock.Now()))

	u.mu.Lock()
	if gen != u.gen {
		u.mu.Unlock()
		u.log.Debugf("discarding bars for %s fetched under a previous chart generation", symbol)
		return nil
	}
	if err != nil {
		u.mu.Unlock()
		return fmt.Errorf("%w: %s: %w", ErrFetch, symbol, err)
	}

	series := model.NormalizeSeries(bars)
	captured := u.renderer.VisibleRange()
	u.series = series
	u.renderer.SetSeries(series)
	if captured != nil {
		u.renderer.ZoomX(*captured)
	}
	u.version++
	frame := Frame{Version: u.version, Symbol: symbol, Series: series, Visible: captured}
	u.mu.Unlock()

	u.notify(frame)
	return nil
}

func (u *Updater) Symbol() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.symbol
}

// Series returns a copy of the current bars.
func (u *Updater) Series() model.BarSeries {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append(model.BarSeries(nil), u.series...)
}

func (u *Updater) PollingEnabled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.polling
}

func (u *Updater) invalidateLocked() {
	u.gen++
	u.cancel()
	u.genCtx, u.cancel = context.WithCancel(context.Background())
}

func (u *Updater) notify(f Frame) {
	if u.listener == nil {
		return
	}
	u.notifyMu.Lock()
	defer u.notifyMu.Unlock()
	if f.Version <= u.delivered {
		return
	}
	u.delivered = f.Version
	u.listener(f)
}
