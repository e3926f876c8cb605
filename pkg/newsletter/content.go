package newsletter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidContent is returned when generated content is missing required
// parts. Content that fails validation is never persisted as complete.
var ErrInvalidContent = errors.New("invalid newsletter content")

// Content is the structured text produced by the content generator.
type Content struct {
	Title      string    `json:"title"`
	Hook       string    `json:"hook"`
	Sections   []Section `json:"sections"`
	Conclusion string    `json:"conclusion"`
	Sources    []Source  `json:"sources"`
}

// Validate reports the first missing part of c, wrapped in ErrInvalidContent.
func (c *Content) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: no content", ErrInvalidContent)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidContent)
	}
	if strings.TrimSpace(c.Hook) == "" {
		return fmt.Errorf("%w: hook is empty", ErrInvalidContent)
	}
	if len(c.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidContent)
	}
	for i, s := range c.Sections {
		if strings.TrimSpace(s.Heading) == "" {
			return fmt.Errorf("%w: section %d has no heading", ErrInvalidContent, i)
		}
		if strings.TrimSpace(s.Body) == "" {
			return fmt.Errorf("%w: section %d has no body", ErrInvalidContent, i)
		}
	}
	if strings.TrimSpace(c.Conclusion) == "" {
		return fmt.Errorf("%w: conclusion is empty", ErrInvalidContent)
	}
	for i, s := range c.Sources {
		if strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("%w: source %d has no url", ErrInvalidContent, i)
		}
	}
	return nil
}

// NarrationText is the script read by the narrator: title, hook, each
// section heading and body, then the conclusion, separated by blank lines.
// Sources are not read aloud.
func (c *Content) NarrationText() string {
	parts := make([]string, 0, 3+2*len(c.Sections))
	parts = append(parts, c.Title, c.Hook)
	for _, s := range c.Sections {
		parts = append(parts, s.Heading, s.Body)
	}
	parts = append(parts, c.Conclusion)

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, "\n\n")
}

// Record builds a complete record for date from c. Sources are never nil.
func (c *Content) Record(date string) *Record {
	sources := c.Sources
	if sources == nil {
		sources = []Source{}
	}
	return &Record{
		PublishDate: date,
		Title:       c.Title,
		Hook:        c.Hook,
		Sections:    append([]Section{}, c.Sections...),
		Conclusion:  c.Conclusion,
		Sources:     append([]Source{}, sources...),
		Status:      StatusComplete,
	}
}
