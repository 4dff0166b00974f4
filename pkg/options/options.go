// Package options carries the tunable knobs of the replacement matcher.
package options

import "go.uber.org/zap"

// Scorer ranks suggestion strings. Higher is better; the matcher sorts
// each span's suggestions by descending score when a scorer is set.
type Scorer interface {
	Score(text string) float64
}

var DefaultOptions = MatcherOptions{
	AllowMultipleWhitespaces: false,
	FilterZeroDistance:       false,
	MaxSuggestionVariants:    16,
	Logger:                   nil,
	Scorer:                   nil,
}

type MatcherOptions struct {
	// AllowMultipleWhitespaces lets patterns match across runs of
	// extra whitespace between the declared tokens.
	AllowMultipleWhitespaces bool
	// FilterZeroDistance drops suggestions identical to the matched
	// text, and spans whose suggestions were all dropped that way.
	FilterZeroDistance bool
	// MaxSuggestionVariants caps how many variants a single suggestion
	// alternative may expand to.
	MaxSuggestionVariants int
	Logger                *zap.Logger
	Scorer                Scorer
}

type Options interface {
	Apply(options *MatcherOptions)
}

type FuncConfig struct {
	ops func(options *MatcherOptions)
}

func (w FuncConfig) Apply(conf *MatcherOptions) {
	w.ops(conf)
}

func NewFuncOption(f func(options *MatcherOptions)) *FuncConfig {
	return &FuncConfig{ops: f}
}

func WithMultipleWhitespaces() Options {
	return NewFuncOption(func(options *MatcherOptions) {
		options.AllowMultipleWhitespaces = true
	})
}

func WithZeroDistanceFilter() Options {
	return NewFuncOption(func(options *MatcherOptions) {
		options.FilterZeroDistance = true
	})
}

func WithMaxSuggestionVariants(n int) Options {
	return NewFuncOption(func(options *MatcherOptions) {
		options.MaxSuggestionVariants = n
	})
}

func WithLogger(logger *zap.Logger) Options {
	return NewFuncOption(func(options *MatcherOptions) {
		options.Logger = logger
	})
}

func WithScorer(scorer Scorer) Options {
	return NewFuncOption(func(options *MatcherOptions) {
		options.Scorer = scorer
	})
}
