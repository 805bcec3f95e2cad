// Package timeparse turns user-entered dates such as "tomorrow at 7pm" or
// "2026-11-02 19:30" into times.
package timeparse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	ErrEmpty        = errors.New("no date given")
	ErrUnrecognized = errors.New("could not understand the date")
	ErrInPast       = errors.New("date is in the past")
)

var layouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 3:04pm",
	"02.01.2006 15:04",
}

// Parser parses dates relative to now in a fixed location.
type Parser struct {
	w   *when.Parser
	loc *time.Location
	now func() time.Time
}

func New(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w, loc: loc, now: time.Now}
}

// WithClock returns a copy of p that reads the current time from now.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	cp := *p
	cp.now = now
	return &cp
}

// Parse returns the time described by input. Times before now are rejected.
func (p *Parser) Parse(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, ErrEmpty
	}
	now := p.now().In(p.loc)

	t, err := p.parse(input, now)
	if err != nil {
		return time.Time{}, err
	}
	if t.Before(now) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInPast, t.Format("2006-01-02 15:04"))
	}
	return t, nil
}

func (p *Parser) parse(input string, now time.Time) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, input, p.loc); err == nil {
			return t, nil
		}
	}

	res, err := p.w.Parse(input, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}
	if res == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, input)
	}
	return res.Time.Truncate(time.Minute), nil
}
