package quotes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"StockTracker/internal/model"
	"StockTracker/internal/scheduler"
)

var (
	// ErrFetch marks a transient quote fetch failure. State is left as it was.
	ErrFetch = errors.New("quote fetch failed")
	// ErrAlreadyTracked is returned when tracking a symbol twice.
	ErrAlreadyTracked = errors.New("symbol already tracked")
)

// Fetcher is the slice of the market-data source the Synchronizer needs.
type Fetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]model.PriceUpdate, error)
	FetchQuote(ctx context.Context, symbol string) (model.PriceUpdate, error)
}

// Reason names the change that produced a View.
type Reason string

const (
	ReasonStart   Reason = "start"
	ReasonStop    Reason = "stop"
	ReasonRefresh Reason = "refresh"
	ReasonExpire  Reason = "expire"
	ReasonTrack   Reason = "track"
	ReasonSeed    Reason = "seed"
	ReasonUntrack Reason = "untrack"
)

// View is a consistent copy of the Synchronizer's state.
type View struct {
	Version    uint64
	Reason     Reason // empty for views read through View()
	Tracked    []model.TrackedSymbol
	Snapshot   model.Snapshot
	Highlights model.HighlightState
}

// Row is one line of the quote table.
type Row struct {
	model.TrackedSymbol
	Quote     *model.Quote    // nil until the symbol acquires a quote
	Direction model.Direction // empty when not highlighted
}

// Synchronizer keeps a Snapshot of live quotes for exactly the tracked symbols and a
// short-lived highlight for every symbol whose price moved on the latest refresh.
type Synchronizer struct {
	fetcher      Fetcher
	log          *zap.SugaredLogger
	clock        clockwork.Clock
	pollEvery    time.Duration
	highlightFor time.Duration
	listener     func(View)
	onError      func(error)
	poller       *scheduler.Poller

	mu           sync.Mutex
	tracked      []model.TrackedSymbol
	gen          uint64 // bumped on every tracked-set change and on Stop
	genCtx       context.Context
	cancel       context.CancelFunc
	snapshot     model.Snapshot
	lastPrices   map[string]float64 // prices recorded by successful batch refreshes only
	highlights   model.HighlightState
	clearTimer   clockwork.Timer
	highlightGen uint64
	version      uint64

	notifyMu  sync.Mutex
	delivered uint64
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock sets the clock driving the highlight timer.
func WithClock(c clockwork.Clock) Option { return func(s *Synchronizer) { s.clock = c } }

// WithPollInterval sets the refresh cadence.
func WithPollInterval(d time.Duration) Option { return func(s *Synchronizer) { s.pollEvery = d } }

// WithHighlightDuration sets how long a highlight stays visible.
func WithHighlightDuration(d time.Duration) Option {
	return func(s *Synchronizer) { s.highlightFor = d }
}

// WithListener registers fn to receive a View after every state change. Views are delivered
// in version order; an older view arriving after a newer one is dropped.
func WithListener(fn func(View)) Option { return func(s *Synchronizer) { s.listener = fn } }

// WithErrorHandler registers fn to receive errors from scheduled refreshes.
func WithErrorHandler(fn func(error)) Option { return func(s *Synchronizer) { s.onError = fn } }

// New creates a stopped Synchronizer.
func New(fetcher Fetcher, log *zap.SugaredLogger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		fetcher:      fetcher,
		log:          log,
		clock:        clockwork.NewRealClock(),
		pollEvery:    5 * time.Second,
		highlightFor: time.Second,
		snapshot:     make(model.Snapshot),
		lastPrices:   make(map[string]float64),
		highlights:   make(model.HighlightState),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.genCtx, s.cancel = context.WithCancel(context.Background())
	s.poller = scheduler.NewPoller("quotes", s.pollEvery, s.poll, log)
	return s
}

// Start replaces the tracked set and begins polling with an immediate first tick.
// An empty set causes no network activity until a symbol is tracked.
func (s *Synchronizer) Start(tracked []model.TrackedSymbol) {
	s.mu.Lock()
	s.tracked = dedupe(tracked)
	s.invalidateLocked()
	s.pruneLocked()
	view := s.changedLocked(ReasonStart)
	s.mu.Unlock()

	s.notify(view)
	s.poller.Start(true)
	s.log.Infof("quote synchronizer started with %d symbols, every %v", len(view.Tracked), s.pollEvery)
}

// Stop cancels polling and the highlight timer, clears pending highlights and turns any
// in-flight fetch into a no-op. Idempotent.
func (s *Synchronizer) Stop() {
	s.poller.Stop()

	s.mu.Lock()
	s.invalidateLocked()
	s.cancelClearLocked()
	changed := len(s.highlights) > 0
	s.highlights = make(model.HighlightState)
	var view View
	if changed {
		view = s.changedLocked(ReasonStop)
	}
	s.mu.Unlock()

	if changed {
		s.notify(view)
	}
}

func (s *Synchronizer) poll() {
	if err := s.Refresh(context.Background()); err != nil {
		s.log.Warnf("quote refresh: %v", err)
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// Refresh fetches quotes for every tracked symbol in one batch and applies the result.
// A result for a tracked set that changed while the fetch was in flight is discarded.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	symbols := symbolsOf(s.tracked)
	gen, genCtx := s.gen, s.genCtx
	s.mu.Unlock()

	if len(symbols) == 0 {
		return nil
	}

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(genCtx, cancel)
	defer stop()

	prices, err := s.fetcher.FetchQuotes(fctx, symbols)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debugf("discarding quotes fetched for a stale tracked set")
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s: %w", ErrFetch, strings.Join(symbols, ","), err)
	}
	s.applyLocked(prices)
	view := s.changedLocked(ReasonRefresh)
	s.mu.Unlock()

	s.notify(view)
	return nil
}

// applyLocked diffs prices against the last recorded prices, replaces the snapshot and the
// highlight state, and re-arms the clear timer.
func (s *Synchronizer) applyLocked(prices map[string]model.PriceUpdate) {
	next := make(model.Snapshot, len(s.tracked))
	highlights := make(model.HighlightState)

	for _, t := range s.tracked {
		u, ok := prices[t.Symbol]
		if !ok {
			// absent this tick: stale but present
			if q, had := s.snapshot[t.Symbol]; had {
				next[t.Symbol] = q
			}
			continue
		}
		if old, had := s.lastPrices[t.Symbol]; had && old != u.Price {
			if u.Price > old {
				highlights[t.Symbol] = model.DirectionUp
			} else {
				highlights[t.Symbol] = model.DirectionDown
			}
		}
		s.lastPrices[t.Symbol] = u.Price
		next[t.Symbol] = model.Quote{
			Symbol:       t.Symbol,
			Name:         t.Name,
			CurrentPrice: u.Price,
			PriceChange:  u.Change,
		}
	}

	s.snapshot = next
	s.highlights = highlights
	s.armClearLocked()
}

func (s *Synchronizer) armClearLocked() {
	s.cancelClearLocked()
	if len(s.highlights) == 0 {
		return
	}
	hgen := s.highlightGen
	s.clearTimer = s.clock.AfterFunc(s.highlightFor, func() { s.expire(hgen) })
}

// cancelClearLocked stops the armed timer and invalidates any callback already on its way.
func (s *Synchronizer) cancelClearLocked() {
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
	s.highlightGen++
}

func (s *Synchronizer) expire(hgen uint64) {
	s.mu.Lock()
	if hgen != s.highlightGen {
		s.mu.Unlock()
		return
	}
	s.clearTimer = nil
	s.highlights = make(model.HighlightState)
	view := s.changedLocked(ReasonExpire)
	s.mu.Unlock()

	s.notify(view)
}

// Track adds t to the tracked set and seeds its quote from a single-ticker lookup. The
// symbol stays tracked if the seed fails; it then acquires a quote on a later refresh.
func (s *Synchronizer) Track(ctx context.Context, t model.TrackedSymbol) error {
	if t.Symbol == "" {
		return fmt.Errorf("track: empty symbol")
	}

	s.mu.Lock()
	if s.indexLocked(t.Symbol) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("track %s: %w", t.Symbol, ErrAlreadyTracked)
	}
	s.tracked = append(s.tracked, t)
	s.invalidateLocked()
	view := s.changedLocked(ReasonTrack)
	s.mu.Unlock()
	s.notify(view)

	u, err := s.fetcher.FetchQuote(ctx, t.Symbol)
	if err != nil {
		return fmt.Errorf("%w: seed %s: %w", ErrFetch, t.Symbol, err)
	}

	s.mu.Lock()
	i := s.indexLocked(t.Symbol)
	if i < 0 {
		s.mu.Unlock()
		return nil // untracked while the lookup was in flight
	}
	if _, priced := s.snapshot[t.Symbol]; priced {
		s.mu.Unlock()
		return nil // a batch refresh got there first
	}
	s.snapshot[t.Symbol] = model.Quote{
		Symbol:       t.Symbol,
		Name:         s.tracked[i].Name,
		CurrentPrice: u.Price,
		PriceChange:  u.Change,
	}
	view = s.changedLocked(ReasonSeed)
	s.mu.Unlock()

	s.notify(view)
	return nil
}

// Untrack removes symbol and its quote immediately. It reports whether symbol was tracked.
func (s *Synchronizer) Untrack(symbol string) bool {
	s.mu.Lock()
	i := s.indexLocked(symbol)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tracked = append(s.tracked[:i:i], s.tracked[i+1:]...)
	s.invalidateLocked()
	delete(s.snapshot, symbol)
	delete(s.lastPrices, symbol)
	delete(s.highlights, symbol)
	view := s.changedLocked(ReasonUntrack)
	s.mu.Unlock()

	s.notify(view)
	return true
}

// View returns a copy of the current state.
func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Tracked returns the tracked set in insertion order.
func (s *Synchronizer) Tracked() []model.TrackedSymbol {
	return s.View().Tracked
}

// Rows returns the tracked set sorted by display name, joined with quotes and highlights.
func (s *Synchronizer) Rows() []Row {
	return RowsOf(s.View())
}

// RowsOf builds the table rows of a view, sorted by display name then symbol.
func RowsOf(v View) []Row {
	rows := make([]Row, 0, len(v.Tracked))
	for _, t := range v.Tracked {
		r := Row{TrackedSymbol: t, Direction: v.Highlights[t.Symbol]}
		if q, ok := v.Snapshot[t.Symbol]; ok {
			q := q
			r.Quote = &q
		}
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := strings.ToLower(rows[i].DisplayName()), strings.ToLower(rows[j].DisplayName())
		if a != b {
			return a < b
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows
}

// changedLocked records a state change and returns the view to publish for it.
func (s *Synchronizer) changedLocked(reason Reason) View {
	s.version++
	v := s.viewLocked()
	v.Reason = reason
	return v
}

func (s *Synchronizer) viewLocked() View {
	tracked := make([]model.TrackedSymbol, len(s.tracked))
	copy(tracked, s.tracked)
	return View{
		Version:    s.version,
		Tracked:    tracked,
		Snapshot:   s.snapshot.Clone(),
		Highlights: s.highlights.Clone(),
	}
}

func (s *Synchronizer) notify(v View) {
	if s.listener == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if v.Version <= s.delivered {
		return
	}
	s.delivered = v.Version
	s.listener(v)
}

// invalidateLocked starts a new generation and cancels fetches bound to the old one.
func (s *Synchronizer) invalidateLocked() {
	s.gen++
	s.cancel()
	s.genCtx, s.cancel = context.WithCancel(context.Background())
}

// pruneLocked drops state belonging to symbols that are no longer tracked.
func (s *Synchronizer) pruneLocked() {
	keep := make(map[string]bool, len(s.tracked))
	for _, t := range s.tracked {
		keep[t.Symbol] = true
	}
	for sym := range s.snapshot {
		if !keep[sym] {
			delete(s.snapshot, sym)
			delete(s.highlights, sym)
		}
	}
	for sym := range s.lastPrices {
		if !keep[sym] {
			delete(s.lastPrices, sym)
		}
	}
}

func (s *Synchronizer) indexLocked(symbol string) int {
	for i, t := range s.tracked {
		if t.Symbol == symbol {
			return i
		}
	}
	return -1
}

func symbolsOf(tracked []model.TrackedSymbol) []string {
	out := make([]string, len(tracked))
	for i, t := range tracked {
		out[i] = t.Symbol
	}
	return out
}

func dedupe(in []model.TrackedSymbol) []model.TrackedSymbol {
	seen := make(map[string]bool, len(in))
	out := make([]model.TrackedSymbol, 0, len(in))
	for _, t := range in {
		if t.Symbol == "" || seen[t.Symbol] {
			continue
		}
		seen[t.Symbol] = true
		out = append(out, t)
	}
	return out
}
