package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"StockTracker/internal/calculator"
	"StockTracker/internal/chart"
	"StockTracker/internal/model"
	"StockTracker/internal/quotes"
	"StockTracker/internal/recorder"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	symbolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	upFlashStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	downFlashStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("9"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// changeStyle colors a signed change.
func changeStyle(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return gainStyle
	case v < 0:
		return lossStyle
	default:
		return lipgloss.NewStyle()
	}
}

// priceStyle flashes the price cell of a highlighted row.
func priceStyle(d model.Direction) lipgloss.Style {
	switch d {
	case model.DirectionUp:
		return upFlashStyle
	case model.DirectionDown:
		return downFlashStyle
	default:
		return lipgloss.NewStyle()
	}
}

func padOrTrunc(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		if n <= 1 {
			return string(r[:n])
		}
		return string(r[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(r))
}

// FormatTable renders one page of quote rows. page is 0-based.
func FormatTable(rows []quotes.Row, page, pages int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf(" Tracked symbols  page %d/%d ", page+1, max(pages, 1))))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  (no tracked symbols, use: add SYMBOL)"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(colHeaderStyle.Render(fmt.Sprintf("  %-8s %-24s %12s %10s", "SYMBOL", "NAME", "PRICE", "CHANGE")))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(symbolStyle.Render(padOrTrunc(r.Symbol, 8)))
		b.WriteString(" ")
		b.WriteString(padOrTrunc(r.Name, 24))
		b.WriteString(" ")
		if r.Quote == nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("%12s %10s", "…", "…")))
		} else {
			b.WriteString(priceStyle(r.Direction).Render(fmt.Sprintf("%12.2f", r.Quote.CurrentPrice)))
			b.WriteString(" ")
			b.WriteString(changeStyle(r.Quote.PriceChange).Render(fmt.Sprintf("%+10.2f", r.Quote.PriceChange)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws closes as a single line of block characters, at most width wide.
func Sparkline(series model.BarSeries, width int) string {
	if len(series) == 0 || width <= 0 {
		return ""
	}
	step := 1
	if len(series) > width {
		step = (len(series) + width - 1) / width
	}
	lo, hi := series[0].Close, series[0].Close
	for _, bar := range series {
		lo = min(lo, bar.Close)
		hi = max(hi, bar.Close)
	}
	var b strings.Builder
	for i := 0; i < len(series); i += step {
		idx := len(sparkRunes) / 2
		if hi > lo {
			idx = int((series[i].Close - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// ChartView is what FormatChart needs to draw the chart panel.
type ChartView struct {
	Symbol  string
	Visible model.BarSeries
	Zoom    *model.ViewportRange
	Zone    string
	Live    bool
	Tail    int // bars listed under the sparkline
}

// FormatChart renders the visible window of a chart.
func FormatChart(v ChartView) string {
	var b strings.Builder
	mode := "paused"
	if v.Live {
		mode = "live"
	}
	window := "full session"
	if v.Zoom != nil {
		from, _ := chart.FormatTime(v.Zoom.Min, v.Zone)
		to, _ := chart.FormatTime(v.Zoom.Max, v.Zone)
		window = from + " – " + to
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf(" %s  %s  %s  %s ", v.Symbol, window, v.Zone, mode)))
	b.WriteString("\n")

	stats, err := calculator.CalculateSessionStats(v.Visible)
	if err != nil {
		b.WriteString(dimStyle.Render("  (no bars)"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  O %.2f  H %.2f  L %.2f  C %.2f  ", stats.Open, stats.High, stats.Low, stats.Last))
	b.WriteString(changeStyle(stats.Change).Render(fmt.Sprintf("%+.2f (%+.2f%%)", stats.Change, stats.ChangePct)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d bars", stats.Bars)))
	b.WriteString("\n  ")
	b.WriteString(Sparkline(v.Visible, 78))
	b.WriteString("\n")

	tail := v.Visible
	if v.Tail > 0 && len(tail) > v.Tail {
		tail = tail[len(tail)-v.Tail:]
	}
	b.WriteString(colHeaderStyle.Render(fmt.Sprintf("  %-9s %10s %10s %10s %10s", "TIME", "OPEN", "HIGH", "LOW", "CLOSE")))
	b.WriteString("\n")
	for _, bar := range tail {
		ts, _ := chart.FormatTime(bar.Timestamp, v.Zone)
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-9s", ts)))
		b.WriteString(changeStyle(bar.Close - bar.Open).Render(
			fmt.Sprintf(" %10.2f %10.2f %10.2f %10.2f", bar.Open, bar.High, bar.Low, bar.Close)))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatDetail renders a symbol's profile and recent news.
func FormatDetail(d *model.Detail, loc *time.Location) string {
	var b strings.Builder
	p := d.Profile
	b.WriteString(titleStyle.Render(fmt.Sprintf(" %s  %s ", p.Symbol, p.Name)))
	b.WriteString("\n")
	if p.PrimaryExchange != "" {
		b.WriteString(dimStyle.Render("  Exchange: ") + p.PrimaryExchange + "\n")
	}
	if p.MarketCap > 0 {
		b.WriteString(dimStyle.Render("  Market cap: ") + fmt.Sprintf("%.2fB", p.MarketCap/1e9) + "\n")
	}
	if p.HomepageURL != "" {
		b.WriteString(dimStyle.Render("  Web: ") + p.HomepageURL + "\n")
	}
	if p.Description != "" {
		b.WriteString("\n  " + lipgloss.NewStyle().Width(76).Render(p.Description) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(symbolStyle.Render("  News"))
	b.WriteString("\n")
	if len(d.News) == 0 {
		b.WriteString(dimStyle.Render("  (no articles)"))
		b.WriteString("\n")
		return b.String()
	}
	for _, a := range d.News {
		ts := a.PublishedAt.In(loc).Format("Jan 02 15:04")
		b.WriteString(dimStyle.Render("  "+ts+" ") + a.Publisher + dimStyle.Render(" ") + a.Title + "\n")
		if a.URL != "" {
			b.WriteString(dimStyle.Render("    "+a.URL) + "\n")
		}
	}
	return b.String()
}

// FormatHistory renders recorded quotes for one symbol, oldest first.
func FormatHistory(symbol string, records []recorder.QuoteRecord, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf(" %s  recorded quotes ", symbol)))
	b.WriteString("\n")
	if len(records) == 0 {
		b.WriteString(dimStyle.Render("  (no history)"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(colHeaderStyle.Render(fmt.Sprintf("  %-20s %12s %10s", "TIME", "PRICE", "CHANGE")))
	b.WriteString("\n")
	for _, r := range records {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-20s", r.Timestamp.In(loc).Format("Jan 02 15:04:05"))))
		b.WriteString(" ")
		b.WriteString(priceStyle(r.Direction).Render(fmt.Sprintf("%12.2f", r.Price)))
		b.WriteString(" ")
		b.WriteString(changeStyle(r.Change).Render(fmt.Sprintf("%+10.2f", r.Change)))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatError renders a command failure.
func FormatError(err error) string {
	return errorStyle.Render("error: ") + err.Error()
}

// FormatHelp lists the console commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Commands "))
	b.WriteString("\n")
	cmds := [][2]string{
		{"add SYMBOL [NAME...]", "track a symbol"},
		{"rm SYMBOL", "stop tracking a symbol"},
		{"table", "show the quote table"},
		{"next | prev", "move between table pages"},
		{"page N", "jump to table page N"},
		{"chart SYMBOL", "show the intraday chart"},
		{"live on|off", "toggle live chart updates"},
		{"zoom HH:MM HH:MM", "zoom the chart to a time window"},
		{"unzoom", "show the full session"},
		{"tz ZONE", "display zone: " + strings.Join(chart.Zones(), " ")},
		{"refresh", "refresh quotes and chart now"},
		{"info SYMBOL", "company profile and news"},
		{"history SYMBOL [N]", "last N recorded quotes (default 20)"},
		{"help", "this list"},
		{"quit", "exit"},
	}
	for _, c := range cmds {
		b.WriteString("  " + symbolStyle.Render(padOrTrunc(c[0], 22)) + " " + c[1] + "\n")
	}
	return b.String()
}
