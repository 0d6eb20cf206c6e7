package audit

import (
	"context"
	"strings"

	"github.com/erazemk/popis/internal/model"
)

// Chromebook fields a MatchStrategy can compare against.
const (
	FieldCode      = "chromebook_id"
	FieldSerial    = "serial_number"
	FieldPatrimony = "patrimony_number"
)

// MatchStrategy is one exact-match lookup tried by the Resolver.
type MatchStrategy struct {
	Field string
	// Value picks the lookup value from the trimmed raw token and its
	// normalized form. An empty value skips the strategy.
	Value func(raw, normalized string) string
}

// DefaultStrategies tries the normalized device code, then the raw code,
// then the serial number, then the patrimony number.
var DefaultStrategies = []MatchStrategy{
	{Field: FieldCode, Value: func(_, normalized string) string { return normalized }},
	{Field: FieldCode, Value: func(raw, normalized string) string {
		if raw == normalized {
			return ""
		}
		return raw
	}},
	{Field: FieldSerial, Value: func(raw, _ string) string { return raw }},
	{Field: FieldPatrimony, Value: func(raw, _ string) string { return raw }},
}

// ChromebookFinder is the part of the Repository the Resolver needs.
type ChromebookFinder interface {
	FindChromebooks(ctx context.Context, field, value string) ([]model.Chromebook, error)
}

// Resolver maps a scanned token to exactly one chromebook.
type Resolver struct {
	Finder     ChromebookFinder
	Prefix     string
	Strategies []MatchStrategy
}

// NewResolver returns a Resolver using DefaultStrategies.
func NewResolver(finder ChromebookFinder, prefix string) *Resolver {
	return &Resolver{Finder: finder, Prefix: prefix, Strategies: DefaultStrategies}
}

// Resolve evaluates the strategies in order and stops at the first one that
// matches anything. More than one match is reported as ambiguous.
func (r *Resolver) Resolve(ctx context.Context, token string) (*model.Chromebook, error) {
	raw := strings.TrimSpace(token)
	if raw == "" {
		return nil, &ValidationError{Field: "token", Message: "empty identifier"}
	}
	normalized := Normalize(raw, r.Prefix)

	strategies := r.Strategies
	if strategies == nil {
		strategies = DefaultStrategies
	}

	for _, s := range strategies {
		value := s.Value(raw, normalized)
		if value == "" {
			continue
		}
		matches, err := r.Finder.FindChromebooks(ctx, s.Field, value)
		if err != nil {
			return nil, persistErr("resolving chromebook", err)
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return &matches[0], nil
		default:
			return nil, &NotFoundError{Token: raw, Ambiguous: true}
		}
	}

	return nil, &NotFoundError{Token: raw}
}
