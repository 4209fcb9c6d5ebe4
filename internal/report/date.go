// Package report locates the nominal publication date inside extracted
// report text and normalizes it to the canonical YYYYMMDD key.
package report

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrDateNotFound is returned when neither pattern matches the text, or a
// matched month name is missing from the month table.
var ErrDateNotFound = errors.New("publication date not found")

// Match holds the three semantic groups captured from the date phrase.
type Match struct {
	Day       int
	MonthName string
	Year      int
}

// Resolver applies the primary/fallback pattern pair and the month table.
type Resolver struct {
	primary  *regexp.Regexp
	fallback *regexp.Regexp
	months   map[string]string
	logger   *zap.Logger
}

// NewResolver compiles both patterns case-insensitively. Each pattern must
// capture day, month name and year as three groups; the month table must be
// the full 12-entry name-to-number mapping.
func NewResolver(primary, fallback string, months map[string]string, logger *zap.Logger) (*Resolver, error) {
	p, err := compilePattern(primary)
	if err != nil {
		return nil, fmt.Errorf("primary pattern: %w", err)
	}
	f, err := compilePattern(fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback pattern: %w", err)
	}
	if len(months) != 12 {
		return nil, fmt.Errorf("month table must have 12 entries, has %d", len(months))
	}
	return &Resolver{primary: p, fallback: f, months: months, logger: logger}, nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() != 3 {
		return nil, fmt.Errorf("must capture 3 groups, has %d", re.NumSubexp())
	}
	return re, nil
}

// Resolve returns the canonical 8-digit date key for the first date phrase
// found in text. The fallback pattern is consulted only when the primary one
// finds nothing; an unknown month name fails outright rather than falling
// back.
func (r *Resolver) Resolve(text string) (string, error) {
	match, err := r.find(text)
	if err != nil {
		return "", err
	}

	monthNum, ok := r.months[strings.ToLower(match.MonthName)]
	if !ok {
		return "", fmt.Errorf("%w: unknown month %q", ErrDateNotFound, match.MonthName)
	}

	return fmt.Sprintf("%04d%s%02d", match.Year, monthNum, match.Day), nil
}

func (r *Resolver) find(text string) (Match, error) {
	if m, ok := r.matchWith(r.primary, text); ok {
		return m, nil
	}
	if m, ok := r.matchWith(r.fallback, text); ok {
		r.logger.Info("publication date found via fallback pattern")
		return m, nil
	}
	return Match{}, ErrDateNotFound
}

// matchWith takes only the first occurrence of the phrase; a match whose day
// or year does not parse into its valid range counts as no match.
func (r *Resolver) matchWith(re *regexp.Regexp, text string) (Match, bool) {
	groups := re.FindStringSubmatch(text)
	if groups == nil {
		return Match{}, false
	}

	day, err := strconv.Atoi(groups[1])
	if err != nil || day < 1 || day > 31 {
		return Match{}, false
	}
	year, err := strconv.Atoi(groups[3])
	if err != nil || len(groups[3]) != 4 {
		return Match{}, false
	}

	return Match{Day: day, MonthName: groups[2], Year: year}, true
}
