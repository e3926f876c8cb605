package fakes

import (
	"context"
	"sync"

	"mercator-hq/courier/pkg/newsletter"
)

// ContentGenerator returns a fixed document for every date. Set Err to
// make it fail.
type ContentGenerator struct {
	mu    sync.Mutex
	Err   error
	dates []string
}

// Content returns the document ContentGenerator produces for date.
func Content(date string) *newsletter.Content {
	return &newsletter.Content{
		Title: "Daily Brief " + date,
		Hook:  "Three stories worth your morning.",
		Sections: []newsletter.Section{
			{Heading: "Markets", Body: "Stocks drifted higher in quiet trade."},
			{Heading: "Science", Body: "A new survey maps the deep ocean floor."},
		},
		Conclusion: "That is all for today.",
		Sources: []newsletter.Source{
			{Title: "Example Wire", URL: "https://example.com/wire"},
		},
	}
}

// GenerateContent implements generation.ContentGenerator.
func (g *ContentGenerator) GenerateContent(ctx context.Context, date string) (*newsletter.Content, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dates = append(g.dates, date)
	if g.Err != nil {
		return nil, g.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Content(date), nil
}

// Dates returns the dates requested so far.
func (g *ContentGenerator) Dates() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.dates...)
}
