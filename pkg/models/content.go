package models

import "encoding/json"

// WebsiteContent is the content document the site UI renders from
type WebsiteContent struct {
	Site       SiteInfo         `json:"site"`
	Pages      Pages            `json:"pages"`
	Assets     Assets           `json:"assets"`
	Design     Design           `json:"design"`
	Navigation []NavigationItem `json:"navigation"`
	Footer     Footer           `json:"footer"`
}

type SiteInfo struct {
	Name        string      `json:"name"`
	Tagline     string      `json:"tagline"`
	Description string      `json:"description"`
	Subheadline string      `json:"subheadline"`
	Contact     SiteContact `json:"contact"`
	Social      SiteSocial  `json:"social"`
}

type SiteContact struct {
	Email    string `json:"email"`
	Location string `json:"location"`
}

type SiteSocial struct {
	Instagram string `json:"instagram"`
	LinkedIn  string `json:"linkedin"`
	Twitter   string `json:"twitter"`
}

// Pages keeps per-page copy untyped; each page component owns its shape.
type Pages struct {
	Home  json.RawMessage `json:"home"`
	Work  json.RawMessage `json:"work"`
	About json.RawMessage `json:"about"`
}

type Assets struct {
	Images map[string]string `json:"images"`
	Videos map[string]string `json:"videos"`
}

type Design struct {
	Colors map[string]string `json:"colors"`
	Fonts  map[string]string `json:"fonts"`
}

type NavigationItem struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Footer struct {
	Services []string `json:"services"`
	Company  []string `json:"company"`
	Legal    []string `json:"legal"`
}
