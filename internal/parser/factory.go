package parser

import (
	"fmt"
	"sort"

	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/otpparser"
	"fjacquet/bank-ingest/internal/revolutparser"
	"fjacquet/bank-ingest/internal/textutils"
)

// Registry maps a source profile to its adapter.
type Registry struct {
	parsers map[models.Profile]Parser
}

// NewRegistry builds a registry from parsers. A later parser replaces an
// earlier one with the same profile.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[models.Profile]Parser, len(parsers))}
	for _, p := range parsers {
		r.parsers[p.Profile()] = p
	}
	return r
}

// DefaultRegistry returns a registry holding every built-in adapter.
func DefaultRegistry(decoder *textutils.Decoder, logger logging.Logger) *Registry {
	return NewRegistry(
		revolutparser.NewAdapter(decoder, logger),
		otpparser.NewAdapter(decoder, logger),
	)
}

// Get returns the adapter registered for profile.
func (r *Registry) Get(profile models.Profile) (Parser, error) {
	p, ok := r.parsers[profile]
	if !ok {
		return nil, fmt.Errorf("unknown parser type: %s", profile)
	}
	return p, nil
}

// Profiles lists the registered profiles in sorted order.
func (r *Registry) Profiles() []models.Profile {
	out := make([]models.Profile, 0, len(r.parsers))
	for p := range r.parsers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
