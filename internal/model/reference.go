package model

import "time"

// Profile holds static company metadata shown in the detail view.
type Profile struct {
	Symbol          string
	Name            string
	Description     string
	HomepageURL     string
	PrimaryExchange string
	MarketCap       float64
}

// NewsArticle is a single headline for a symbol.
type NewsArticle struct {
	Title       string
	Author      string
	Publisher   string
	URL         string
	PublishedAt time.Time
}

// Detail aggregates the single-fetch reference data of one symbol.
type Detail struct {
	Profile *Profile
	News    []NewsArticle
}
