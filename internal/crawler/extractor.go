package crawler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Default extraction patterns, most specific first. Each pattern has exactly
// one capture group holding the number.
var (
	DefaultPricePatterns = []string{
		`价格[：:][\s\p{Zs}]*(\d+(?:\.\d+)?)元`,
		`(\d+(?:\.\d+)?)元`,
	}

	DefaultPointsPatterns = []string{
		`已用无畏点[：:][\s\p{Zs}]*(\d+(?:,\d+)*)`,
		`无畏点[：:][\s\p{Zs}]*(\d+(?:,\d+)*)`,
	}
)

// Extractor pulls the price and wuwei points out of page text.
// Patterns are tried in order and the first match wins.
type Extractor struct {
	PricePatterns  []*regexp.Regexp
	PointsPatterns []*regexp.Regexp
}

// NewExtractor compiles the given pattern lists
func NewExtractor(pricePatterns, pointsPatterns []string) (*Extractor, error) {
	price, err := compilePatterns(pricePatterns)
	if err != nil {
		return nil, fmt.Errorf("price patterns: %w", err)
	}
	points, err := compilePatterns(pointsPatterns)
	if err != nil {
		return nil, fmt.Errorf("points patterns: %w", err)
	}
	return &Extractor{PricePatterns: price, PointsPatterns: points}, nil
}

// DefaultExtractor returns an extractor using the default patterns
func DefaultExtractor() *Extractor {
	e, err := NewExtractor(DefaultPricePatterns, DefaultPointsPatterns)
	if err != nil {
		panic(err)
	}
	return e
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		if re.NumSubexp() != 1 {
			return nil, fmt.Errorf("pattern %q must have exactly one capture group", p)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// firstMatch returns the capture of the first pattern that matches text.
// Full-width digits and punctuation are folded to ASCII first.
func firstMatch(text string, patterns []*regexp.Regexp) (string, bool) {
	text = width.Fold.String(text)
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ExtractPrice returns the price in yuan, or 0 when no pattern matches
func (e *Extractor) ExtractPrice(text string) float64 {
	raw, ok := firstMatch(text, e.PricePatterns)
	if !ok {
		return 0
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}

// ExtractPoints returns the used wuwei points with thousands separators
// removed, or 0 when no pattern matches
func (e *Extractor) ExtractPoints(text string) int {
	raw, ok := firstMatch(text, e.PointsPatterns)
	if !ok {
		return 0
	}
	points, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil || points < 0 {
		return 0
	}
	return points
}
