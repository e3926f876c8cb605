package newsletter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validContent() *Content {
	return &Content{
		Title:      "Morning Brief",
		Hook:       "Three things happened.",
		Sections:   []Section{{Heading: "Markets", Body: "Up."}, {Heading: "Weather", Body: "Sunny."}},
		Conclusion: "See you tomorrow.",
		Sources:    []Source{{URL: "https://example.com/a", Title: "A"}},
	}
}

func TestContent_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Content)
	}{
		{"empty title", func(c *Content) { c.Title = "  " }},
		{"empty hook", func(c *Content) { c.Hook = "" }},
		{"no sections", func(c *Content) { c.Sections = nil }},
		{"section without heading", func(c *Content) { c.Sections[1].Heading = "" }},
		{"section without body", func(c *Content) { c.Sections[0].Body = "\n" }},
		{"empty conclusion", func(c *Content) { c.Conclusion = "" }},
		{"source without url", func(c *Content) { c.Sources[0].URL = "" }},
	}

	require.NoError(t, validContent().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validContent()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidContent))
		})
	}

	var nilContent *Content
	assert.ErrorIs(t, nilContent.Validate(), ErrInvalidContent)
}

func TestContent_ValidateAllowsNoSources(t *testing.T) {
	c := validContent()
	c.Sources = nil
	assert.NoError(t, c.Validate())
}

func TestContent_NarrationText(t *testing.T) {
	got := validContent().NarrationText()
	want := "Morning Brief\n\nThree things happened.\n\nMarkets\n\nUp.\n\nWeather\n\nSunny.\n\nSee you tomorrow."
	assert.Equal(t, want, got)
}

func TestContent_Record(t *testing.T) {
	c := validContent()
	c.Sources = nil

	rec := c.Record("2025-06-01")
	assert.Equal(t, "2025-06-01", rec.PublishDate)
	assert.Equal(t, StatusComplete, rec.Status)
	assert.NotNil(t, rec.Sources)
	assert.Empty(t, rec.Sources)
	assert.Len(t, rec.Sections, 2)

	// The record must not alias the content's slices
	c.Sections[0].Heading = "changed"
	assert.Equal(t, "Markets", rec.Sections[0].Heading)
}
