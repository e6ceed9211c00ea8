// Package netgraph derives a node/edge relationship graph from a VPC network
// inventory. Each inventory category is handled by one independent pass;
// passes share nothing but the build's accumulator.
package netgraph

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fabiosv/aws-resources-mapper/decision/inventory"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
	apperrors "github.com/fabiosv/aws-resources-mapper/pkg/errors"
	"github.com/fabiosv/aws-resources-mapper/pkg/metrics"
)

// GraphBuilder builds network graphs from inventory documents.
//
// A builder holds configuration only. Every Build call works on fresh
// accumulators, so a builder can be reused for any number of sequential
// builds. Concurrent Build calls on one builder are not supported.
type GraphBuilder struct {
	logger                zerolog.Logger
	metrics               *metrics.Registry
	extended              bool
	includeNetworkNode    bool
	canonicalizeSymmetric bool
}

// Result is the outcome of one build.
type Result struct {
	BuildID  uuid.UUID
	Graph    *api.NetworkGraph
	Warnings []*apperrors.RecordError
	// Notices lists absent categories, which were treated as empty.
	Notices  []*apperrors.RecordError
	Duration time.Duration
}

// NewGraphBuilder creates a new graph builder
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		logger: zerolog.Nop(),
	}
}

// WithLogger sets the logger used for pass and record diagnostics
func (b *GraphBuilder) WithLogger(logger zerolog.Logger) *GraphBuilder {
	b.logger = logger
	return b
}

// WithMetrics records build outcomes in reg
func (b *GraphBuilder) WithMetrics(reg *metrics.Registry) *GraphBuilder {
	b.metrics = reg
	return b
}

// WithExtendedCategories also graphs NAT gateways, VPC endpoints, peering connections and RDS clusters
func (b *GraphBuilder) WithExtendedCategories(enabled bool) *GraphBuilder {
	b.extended = enabled
	return b
}

// WithNetworkNode inserts the document's network ID as the first node
func (b *GraphBuilder) WithNetworkNode(enabled bool) *GraphBuilder {
	b.includeNetworkNode = enabled
	return b
}

// WithSymmetricCanonicalization stores symmetric edge kinds with sorted endpoints
func (b *GraphBuilder) WithSymmetricCanonicalization(enabled bool) *GraphBuilder {
	b.canonicalizeSymmetric = enabled
	return b
}

// Build derives the graph for doc. A nil document returns ErrInventoryNotLoaded.
func (b *GraphBuilder) Build(doc *inventory.Document) (*Result, error) {
	start := time.Now()
	if doc == nil {
		b.metrics.ObserveBuild(apperrors.ErrInventoryNotLoaded, 0, 0, 0)
		return nil, apperrors.ErrInventoryNotLoaded
	}

	networkID := doc.ID()
	r := &run{
		acc:     newAccumulator(b.canonicalizeSymmetric),
		logger:  b.logger.With().Str("network_id", networkID).Logger(),
		metrics: b.metrics,
	}

	if b.includeNetworkNode {
		r.acc.addNode(networkID)
	}

	for _, p := range b.passes() {
		if !p.present(doc) {
			r.notices = append(r.notices, apperrors.NewMissingCategoryError(p.category))
			r.logger.Debug().Str("category", p.category).Msg("Category missing, treated as empty")
			continue
		}
		p.derive(r, doc)
	}

	result := &Result{
		BuildID:  uuid.New(),
		Graph:    r.acc.freeze(networkID),
		Warnings: r.warnings,
		Notices:  r.notices,
		Duration: time.Since(start),
	}
	b.metrics.ObserveBuild(nil, result.Duration, len(result.Graph.Nodes), len(result.Graph.Edges))

	r.logger.Info().
		Str("build_id", result.BuildID.String()).
		Int("nodes", len(result.Graph.Nodes)).
		Int("edges", len(result.Graph.Edges)).
		Int("warnings", len(result.Warnings)).
		Dur("duration", result.Duration).
		Msg("Network graph built")

	return result, nil
}

func (b *GraphBuilder) passes() []pass {
	if !b.extended {
		return corePasses
	}
	all := make([]pass, 0, len(corePasses)+len(extendedPasses))
	all = append(all, corePasses...)
	return append(all, extendedPasses...)
}

// APIWarnings converts the skipped-record warnings for API responses.
func (r *Result) APIWarnings() []api.Warning {
	out := make([]api.Warning, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, api.Warning{
			Code:       w.Code,
			Category:   w.Category,
			Index:      w.Index,
			ResourceID: w.ResourceID,
			Message:    w.Message,
		})
	}
	return out
}

// run is the state of a single build.
type run struct {
	acc      *accumulator
	logger   zerolog.Logger
	metrics  *metrics.Registry
	warnings []*apperrors.RecordError
	notices  []*apperrors.RecordError
}

// usable validates record and records a warning when it cannot be used.
func (r *run) usable(category string, index int, id string, record any) bool {
	field := inventory.MissingField(record)
	if field == "" {
		return true
	}

	w := apperrors.NewMalformedRecordError(category, index, id, field)
	r.warnings = append(r.warnings, w)
	r.metrics.RecordSkipped(category)
	r.logger.Warn().
		Str("category", category).
		Int("index", index).
		Str("field", field).
		Msg("Skipping malformed inventory record")
	return false
}
