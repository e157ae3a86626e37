package chart

import (
	"fmt"
	"sync"

	"StockTracker/internal/model"
)

// Renderer is the chart surface the Updater draws into. It owns the viewport.
type Renderer interface {
	// VisibleRange returns the user-set zoom window, or nil when showing the default range.
	VisibleRange() *model.ViewportRange
	// SetSeries replaces the drawn series. Implementations may drop the current zoom.
	SetSeries(model.BarSeries)
	ZoomX(model.ViewportRange)
	ResetZoom()
}

// Canvas is an in-memory Renderer. Like most charting widgets, replacing its series
// resets the viewport to the full data range.
type Canvas struct {
	mu     sync.RWMutex
	series model.BarSeries
	zoom   *model.ViewportRange
}

func NewCanvas() *Canvas {
	return &Canvas{}
}

func (c *Canvas) VisibleRange() *model.ViewportRange {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.zoom == nil {
		return nil
	}
	r := *c.zoom
	return &r
}

func (c *Canvas) SetSeries(s model.BarSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = append(model.BarSeries(nil), s...)
	c.zoom = nil
}

func (c *Canvas) ZoomX(r model.ViewportRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = &r
}

func (c *Canvas) ResetZoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = nil
}

// Zoom is the viewer's zoom/pan gesture.
func (c *Canvas) Zoom(min, max int64) error {
	if min >= max {
		return fmt.Errorf("zoom: empty window [%d, %d]", min, max)
	}
	c.ZoomX(model.ViewportRange{Min: min, Max: max})
	return nil
}

// Series returns a copy of the drawn series.
func (c *Canvas) Series() model.BarSeries {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(model.BarSeries(nil), c.series...)
}

// Range returns the zoom window, or the full data range when not zoomed.
func (c *Canvas) Range() (model.ViewportRange, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.zoom != nil {
		return *c.zoom, true
	}
	return c.series.FullRange()
}

// Visible returns the bars inside Range.
func (c *Canvas) Visible() model.BarSeries {
	r, ok := c.Range()
	if !ok {
		return model.BarSeries{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(model.BarSeries, 0, len(c.series))
	for _, b := range c.series {
		if r.Contains(b.Timestamp) {
			out = append(out, b)
		}
	}
	return out
}
