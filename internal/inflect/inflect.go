// Package inflect turns (lemma, morphological tag) pairs into surface
// forms. It is the single seam through which grammar knowledge enters
// the engine: lookup sources implement FormStore and are consulted in
// order, followed by a built-in English table and a regular-morphology
// ruleset. A pair nothing can cover falls back to the unchanged lemma,
// flagged as unverified rather than silently dropped.
package inflect

import (
	"go.uber.org/zap"
)

// FormStore is the external inflection lookup contract: it may return
// "not found". Implementations must be safe for concurrent use and are
// expected to keep Lookup latency bounded (pre-loaded data, or a
// timeout at the I/O boundary).
type FormStore interface {
	Lookup(lemma, tag string) (string, bool)
}

// Result is one inflection outcome. Verified is false only when every
// source missed and the lemma was returned unchanged, so callers can
// mark the suggestion accordingly.
type Result struct {
	Form     string
	Verified bool
}

// Engine resolves inflections against an ordered store chain.
type Engine struct {
	stores []FormStore
	logger *zap.Logger
}

// NewEngine builds an engine. Stores are consulted first, in order;
// logger may be nil.
func NewEngine(logger *zap.Logger, stores ...FormStore) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{stores: stores, logger: logger}
}

// Inflect returns the surface form of lemma under tag.
func (e *Engine) Inflect(lemma, tag string) Result {
	if lemma == "" || tag == "" {
		return Result{Form: lemma, Verified: false}
	}
	for _, s := range e.stores {
		if form, ok := s.Lookup(lemma, tag); ok {
			return Result{Form: form, Verified: true}
		}
	}
	if form, ok := lookupIrregular(lemma, tag); ok {
		return Result{Form: form, Verified: true}
	}
	if form, ok := inflectRegular(lemma, tag); ok {
		return Result{Form: form, Verified: true}
	}
	e.logger.Debug("inflection miss, falling back to lemma",
		zap.String("lemma", lemma),
		zap.String("tag", tag))
	return Result{Form: lemma, Verified: false}
}

// MapStore is an in-memory FormStore over lemma -> tag -> form.
type MapStore map[string]map[string]string

// Lookup implements FormStore.
func (m MapStore) Lookup(lemma, tag string) (string, bool) {
	forms, ok := m[lemma]
	if !ok {
		return "", false
	}
	form, ok := forms[tag]
	return form, ok
}
