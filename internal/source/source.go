// Package source loads raw transaction batches from their storage formats.
// Each source returns the raw origin records untouched; normalization and
// validation happen downstream in the market engine.
package source

import (
	"context"
	"fmt"

	"github.com/InitCore006/SeedSync-sub001/internal/market"
)

// TransactionSource provides one raw transaction batch per fetch.
type TransactionSource interface {
	// Name identifies the source in logs and health reports.
	Name() string
	// Fetch reads the current batch. Implementations must honor context
	// cancellation between files.
	Fetch(ctx context.Context) (market.RawBatch, error)
}

// MemorySource serves a fixed batch. Used in tests and for ingesting batches
// already held in memory.
type MemorySource struct {
	Batch market.RawBatch
}

func (s *MemorySource) Name() string { return "memory" }

func (s *MemorySource) Fetch(ctx context.Context) (market.RawBatch, error) {
	if err := ctx.Err(); err != nil {
		return market.RawBatch{}, err
	}
	return s.Batch, nil
}

// MultiSource concatenates the batches of several sources. A failure in any
// source fails the whole fetch; partial batches would silently skew the
// downstream analysis.
type MultiSource struct {
	Sources []TransactionSource
}

func (s *MultiSource) Name() string { return "multi" }

func (s *MultiSource) Fetch(ctx context.Context) (market.RawBatch, error) {
	var out market.RawBatch
	for _, src := range s.Sources {
		batch, err := src.Fetch(ctx)
		if err != nil {
			return market.RawBatch{}, fmt.Errorf("source %s: %w", src.Name(), err)
		}
		out.Orders = append(out.Orders, batch.Orders...)
		out.Lots = append(out.Lots, batch.Lots...)
		out.Batches = append(out.Batches, batch.Batches...)
	}
	return out, nil
}
