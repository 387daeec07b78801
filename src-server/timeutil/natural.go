package timeutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// NaturalParser turns phrases like "tomorrow at 9am" into instants.
type NaturalParser struct {
	w *when.Parser
}

func NewNaturalParser() *NaturalParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &NaturalParser{w: w}
}

// ParseOrNatural accepts an ISO-8601 timestamp first and falls back to
// natural language relative to base. Timestamps without a zone are read in
// the zone of base, like the natural language ones.
func (p *NaturalParser) ParseOrNatural(text string, base time.Time) (time.Time, error) {
	if t, err := ParseIn(text, base.Location()); err == nil {
		return t, nil
	}
	return p.Parse(text, base)
}

func (p *NaturalParser) Parse(text string, base time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("NaturalParser.Parse: empty text: %w", ErrInvalidTime)
	}
	result, err := p.w.Parse(text, base)
	if err != nil {
		return time.Time{}, fmt.Errorf("NaturalParser.Parse: %v: %w", err, ErrInvalidTime)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("NaturalParser.Parse: no date in %q: %w", text, ErrInvalidTime)
	}
	return result.Time, nil
}
