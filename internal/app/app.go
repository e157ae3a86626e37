// Package app connects the console to the quote synchronizer and chart updater.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"StockTracker/internal/chart"
	"StockTracker/internal/collector"
	"StockTracker/internal/console"
	"StockTracker/internal/model"
	"StockTracker/internal/pagination"
	"StockTracker/internal/quotes"
	"StockTracker/internal/recorder"
	"StockTracker/internal/watchlist"
)

type viewKind int

const (
	viewTable viewKind = iota
	viewChart
	viewInfo
)

// chartTail is how many of the latest bars the chart panel lists.
const chartTail = 10

const defaultHistoryRows = 20

// Options holds the tunables taken from configuration.
type Options struct {
	QuotePollInterval time.Duration
	HighlightDuration time.Duration
	ChartPollInterval time.Duration
	PageSize          int
	Timezone          string
	Live              bool
	Clock             clockwork.Clock
}

// App owns the core components and renders them to the console.
type App struct {
	Quotes    *quotes.Synchronizer
	Chart     *chart.Updater
	Canvas    *chart.Canvas
	Collector *collector.Collector
	Store     watchlist.Store
	Recorder  recorder.Recorder
	Out       *console.Output

	log      *zap.SugaredLogger
	clock    clockwork.Clock
	pageSize int

	// mu guards the fields below. It is never held while calling into Quotes or Chart,
	// whose listeners take it.
	mu       sync.Mutex
	view     viewKind
	page     int
	total    int
	zone     string
	live     bool
	lastInfo string
}

// New wires the synchronizer, chart updater and detail collector around fetcher.
func New(fetcher collector.Fetcher, store watchlist.Store, rec recorder.Recorder, out *console.Output, log *zap.SugaredLogger, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.Timezone == "" {
		opts.Timezone = chart.DefaultZone
	}

	a := &App{
		Canvas:    chart.NewCanvas(),
		Collector: collector.NewCollector(fetcher, log),
		Store:     store,
		Recorder:  rec,
		Out:       out,
		log:       log,
		clock:     opts.Clock,
		pageSize:  opts.PageSize,
		zone:      strings.ToUpper(opts.Timezone),
		live:      opts.Live,
	}

	qopts := []quotes.Option{
		quotes.WithClock(opts.Clock),
		quotes.WithListener(a.onQuotes),
		quotes.WithErrorHandler(a.onPollError),
	}
	if opts.QuotePollInterval > 0 {
		qopts = append(qopts, quotes.WithPollInterval(opts.QuotePollInterval))
	}
	if opts.HighlightDuration > 0 {
		qopts = append(qopts, quotes.WithHighlightDuration(opts.HighlightDuration))
	}
	a.Quotes = quotes.New(fetcher, log.Named("quotes"), qopts...)

	copts := []chart.Option{
		chart.WithClock(opts.Clock),
		chart.WithListener(a.onChart),
		chart.WithErrorHandler(a.onPollError),
	}
	if opts.ChartPollInterval > 0 {
		copts = append(copts, chart.WithPollInterval(opts.ChartPollInterval))
	}
	a.Chart = chart.NewUpdater(fetcher, a.Canvas, log.Named("chart"), copts...)
	return a
}

// Start loads the saved watchlist and starts polling. It returns the first table render.
func (a *App) Start(ctx context.Context) (string, error) {
	tracked, err := a.Store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load watchlist: %w", err)
	}
	a.log.Infof("loaded %d tracked symbols", len(tracked))
	a.Quotes.Start(tracked)

	a.mu.Lock()
	live := a.live
	a.mu.Unlock()
	a.Chart.SetPollingEnabled(live)
	return a.render(), nil
}

// Stop halts all polling.
func (a *App) Stop() {
	a.Quotes.Stop()
	a.Chart.Stop()
}

func (a *App) onQuotes(v quotes.View) {
	if v.Reason == quotes.ReasonRefresh {
		if err := a.Recorder.RecordQuotes(a.clock.Now(), v.Snapshot, v.Highlights); err != nil {
			a.log.Errorf("record quotes: %v", err)
		}
	}

	a.mu.Lock()
	if n := len(v.Tracked); n != a.total {
		a.total = n
		a.page = pagination.Clamp(a.page, n, a.pageSize)
	}
	show := a.view == viewTable && (v.Reason == quotes.ReasonRefresh || v.Reason == quotes.ReasonExpire)
	page := a.page
	a.mu.Unlock()

	if show {
		a.Out.Print(a.formatTable(v, page))
	}
}

func (a *App) onChart(f chart.Frame) {
	if err := a.Recorder.RecordBarRefresh(a.clock.Now(), f.Symbol, f.Series); err != nil {
		a.log.Errorf("record bar refresh: %v", err)
	}
	a.mu.Lock()
	show := a.view == viewChart && a.live
	a.mu.Unlock()
	if show {
		a.Out.Print(a.renderChart())
	}
}

func (a *App) onPollError(err error) {
	a.log.Debugf("poll error surfaced: %v", err)
}

// HandleCommand processes a console command and returns a reply.
func (a *App) HandleCommand(ctx context.Context, command string) (string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "add":
		return a.cmdAdd(ctx, args)
	case "rm", "remove":
		return a.cmdRemove(ctx, args)
	case "table":
		a.setView(viewTable)
		return a.render(), nil
	case "next":
		return a.movePage(1), nil
	case "prev":
		return a.movePage(-1), nil
	case "page":
		return a.cmdPage(args)
	case "chart":
		return a.cmdChart(ctx, args)
	case "live":
		return a.cmdLive(args)
	case "zoom":
		return a.cmdZoom(args)
	case "unzoom":
		a.Canvas.ResetZoom()
		a.setView(viewChart)
		return a.renderChart(), nil
	case "tz":
		return a.cmdZone(args)
	case "refresh":
		return a.cmdRefresh(ctx)
	case "info":
		return a.cmdInfo(ctx, args)
	case "history":
		return a.cmdHistory(args)
	case "help":
		return console.FormatHelp(), nil
	case "quit", "exit":
		return "bye", console.ErrQuit
	default:
		return "", fmt.Errorf("unknown command %q, try help", fields[0])
	}
}

func (a *App) cmdAdd(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: add SYMBOL [NAME...]")
	}
	t := model.TrackedSymbol{Symbol: strings.ToUpper(args[0]), Name: strings.Join(args[1:], " ")}
	err := a.Quotes.Track(ctx, t)
	if errors.Is(err, quotes.ErrAlreadyTracked) {
		return "", err
	}
	a.saveWatchlist(ctx)
	a.setView(viewTable)
	reply := a.render()
	if err != nil {
		a.log.Warnf("seed quote: %v", err)
		reply += fmt.Sprintf("\nquote for %s pending: %v", t.Symbol, err)
	}
	return reply, nil
}

func (a *App) cmdRemove(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: rm SYMBOL")
	}
	symbol := strings.ToUpper(args[0])
	if !a.Quotes.Untrack(symbol) {
		return "", fmt.Errorf("%s is not tracked", symbol)
	}
	a.saveWatchlist(ctx)
	a.setView(viewTable)
	return a.render(), nil
}

func (a *App) saveWatchlist(ctx context.Context) {
	if err := a.Store.Save(ctx, a.Quotes.Tracked()); err != nil {
		a.log.Errorf("save watchlist: %v", err)
	}
}

func (a *App) movePage(delta int) string {
	a.mu.Lock()
	a.view = viewTable
	a.page = pagination.Clamp(a.page+delta, a.total, a.pageSize)
	a.mu.Unlock()
	return a.render()
}

func (a *App) cmdPage(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: page N")
	}
	a.mu.Lock()
	page, display, ok := pagination.Commit(args[0], a.page, a.total, a.pageSize)
	a.page = page
	a.view = viewTable
	a.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no page %q, staying on page %s", args[0], display)
	}
	return a.render(), nil
}

func (a *App) cmdChart(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: chart SYMBOL")
	}
	a.Chart.SetSymbol(strings.ToUpper(args[0]))
	a.setView(viewChart)
	if err := a.Chart.Refresh(ctx); err != nil {
		return a.renderChart() + "\n" + console.FormatError(err), nil
	}
	return a.renderChart(), nil
}

func (a *App) cmdLive(args []string) (string, error) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return "", errors.New("usage: live on|off")
	}
	on := args[0] == "on"
	a.mu.Lock()
	a.live = on
	a.mu.Unlock()
	a.Chart.SetPollingEnabled(on)
	return fmt.Sprintf("live chart updates %s", args[0]), nil
}

func (a *App) cmdZoom(args []string) (string, error) {
	if len(args) != 2 {
		return "", errors.New("usage: zoom HH:MM HH:MM")
	}
	series := a.Canvas.Series()
	if len(series) == 0 {
		return "", errors.New("no chart data to zoom, use: chart SYMBOL")
	}
	zone := a.Zone()
	loc, err := chart.Location(zone)
	if err != nil {
		return "", err
	}
	day := series[0].Time().In(loc)
	from, err := chart.ParseClock(args[0], day, zone)
	if err != nil {
		return "", err
	}
	to, err := chart.ParseClock(args[1], day, zone)
	if err != nil {
		return "", err
	}
	if err := a.Canvas.Zoom(from, to); err != nil {
		return "", err
	}
	a.setView(viewChart)
	return a.renderChart(), nil
}

func (a *App) cmdZone(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: tz %s", strings.Join(chart.Zones(), "|"))
	}
	zone := strings.ToUpper(args[0])
	if _, err := chart.Location(zone); err != nil {
		return "", err
	}
	a.mu.Lock()
	a.zone = zone
	a.mu.Unlock()
	return a.render(), nil
}

func (a *App) cmdRefresh(ctx context.Context) (string, error) {
	var errs []error
	if err := a.Quotes.Refresh(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Chart.Refresh(ctx); err != nil {
		errs = append(errs, err)
	}
	reply := a.render()
	if err := errors.Join(errs...); err != nil {
		reply += "\n" + console.FormatError(err)
	}
	return reply, nil
}

func (a *App) cmdInfo(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: info SYMBOL")
	}
	symbol := strings.ToUpper(args[0])
	d, err := a.Collector.Detail(ctx, symbol)
	if err != nil {
		return "", fmt.Errorf("info %s: %w", symbol, err)
	}
	loc, err := chart.Location(a.Zone())
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	a.view = viewInfo
	a.lastInfo = symbol
	a.mu.Unlock()
	return console.FormatDetail(d, loc), nil
}

func (a *App) cmdHistory(args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", errors.New("usage: history SYMBOL [N]")
	}
	symbol := strings.ToUpper(args[0])
	limit := defaultHistoryRows
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return "", fmt.Errorf("history: %q is not a positive row count", args[1])
		}
		limit = n
	}
	records, err := a.Recorder.QuoteHistory(symbol, limit)
	if err != nil {
		return "", fmt.Errorf("history %s: %w", symbol, err)
	}
	loc, err := chart.Location(a.Zone())
	if err != nil {
		return "", err
	}
	return console.FormatHistory(symbol, records, loc), nil
}

func (a *App) setView(v viewKind) {
	a.mu.Lock()
	a.view = v
	a.mu.Unlock()
}

// Page returns the current 0-based table page.
func (a *App) Page() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

// Zone returns the chart display zone.
func (a *App) Zone() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.zone
}

func (a *App) render() string {
	a.mu.Lock()
	view, page, info := a.view, a.page, a.lastInfo
	a.mu.Unlock()

	switch view {
	case viewChart:
		return a.renderChart()
	case viewInfo:
		return fmt.Sprintf("showing info for %s, use: table or chart SYMBOL", info)
	default:
		return a.formatTable(a.Quotes.View(), page)
	}
}

func (a *App) formatTable(v quotes.View, page int) string {
	rows := quotes.RowsOf(v)
	pages := pagination.PageCount(len(rows), a.pageSize)
	return console.FormatTable(pagination.Slice(rows, page, a.pageSize), page, pages)
}

func (a *App) renderChart() string {
	a.mu.Lock()
	zone, live := a.zone, a.live
	a.mu.Unlock()

	symbol := a.Chart.Symbol()
	if symbol == "" {
		return "no chart selected, use: chart SYMBOL"
	}
	return console.FormatChart(console.ChartView{
		Symbol:  symbol,
		Visible: a.Canvas.Visible(),
		Zoom:    a.Canvas.VisibleRange(),
		Zone:    zone,
		Live:    live,
		Tail:    chartTail,
	})
}
