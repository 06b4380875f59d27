package generator

import (
	"context"
	"time"
)

// Observer receives one call per engine operation.
type Observer interface {
	ObserveGeneration(engine, operation string, err error, dur time.Duration)
}

type instrumented struct {
	Engine
	obs Observer
}

// Instrument reports every Options and Refine call to obs.
func Instrument(e Engine, obs Observer) Engine {
	if obs == nil {
		return e
	}
	return &instrumented{Engine: e, obs: obs}
}

func (i *instrumented) Options(ctx context.Context, req OptionsRequest) ([]Draft, error) {
	start := time.Now()
	out, err := i.Engine.Options(ctx, req)
	i.obs.ObserveGeneration(i.Name(), "options", err, time.Since(start))
	return out, err
}

func (i *instrumented) Refine(ctx context.Context, req RefineRequest) (Draft, error) {
	start := time.Now()
	out, err := i.Engine.Refine(ctx, req)
	i.obs.ObserveGeneration(i.Name(), "refine", err, time.Since(start))
	return out, err
}
