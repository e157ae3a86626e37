package model

// TrackedSymbol is an entry of the user's tracked set. Symbol is the identity key.
type TrackedSymbol struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// DisplayName returns Name, falling back to Symbol when no name is known.
func (t TrackedSymbol) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Symbol
}

// Quote is the live enrichment of a TrackedSymbol.
type Quote struct {
	Symbol       string
	Name         string
	CurrentPrice float64
	PriceChange  float64 // day's net change, signed
}

// PriceUpdate is one ticker entry of a quote endpoint response.
type PriceUpdate struct {
	Symbol string
	Price  float64
	Change float64
}

// Snapshot maps symbol to the Quote in effect at a point in time.
type Snapshot map[string]Quote

// Clone returns a shallow copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Direction classifies a price move between two refreshes.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// HighlightState maps symbol to the direction of its latest move. Missing entries mean no highlight.
type HighlightState map[string]Direction

// Clone returns a shallow copy of the highlight state.
func (h HighlightState) Clone() HighlightState {
	out := make(HighlightState, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
