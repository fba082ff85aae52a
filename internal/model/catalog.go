package model

import "time"

type Team struct {
	Rank       int    `json:"rank"`
	Name       string `json:"name"`
	Country    string `json:"country,omitempty"`
	Region     string `json:"region,omitempty"`
	Record     string `json:"record,omitempty"`
	LastPlayed string `json:"last_played,omitempty"`
	LogoURL    string `json:"logo_url,omitempty"`
}

type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author,omitempty"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}
