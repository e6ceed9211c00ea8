// Package db defines where built network graphs are persisted.
package db

import (
	"context"
	"time"

	"github.com/fabiosv/aws-resources-mapper/pkg/api"
	apperrors "github.com/fabiosv/aws-resources-mapper/pkg/errors"
	"github.com/fabiosv/aws-resources-mapper/pkg/metrics"
)

// GraphStore persists a finished graph. Writes are not retried; any error is
// fatal for the caller.
type GraphStore interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Save writes g and returns where it was written.
	Save(ctx context.Context, g *api.NetworkGraph) (string, error)

	Close() error
}

// Instrumented wraps a store with metrics and PersistError wrapping.
type Instrumented struct {
	store   GraphStore
	metrics *metrics.Registry
}

// Instrument wraps store. A nil registry only adds error wrapping.
func Instrument(store GraphStore, reg *metrics.Registry) *Instrumented {
	return &Instrumented{store: store, metrics: reg}
}

func (i *Instrumented) Name() string {
	return i.store.Name()
}

func (i *Instrumented) Save(ctx context.Context, g *api.NetworkGraph) (string, error) {
	start := time.Now()
	location, err := i.store.Save(ctx, g)
	i.metrics.ObserveStore(i.store.Name(), err, time.Since(start))
	if err != nil {
		if location == "" {
			location = i.store.Name()
		}
		return "", apperrors.NewPersistError(location, err)
	}
	return location, nil
}

func (i *Instrumented) Close() error {
	return i.store.Close()
}
