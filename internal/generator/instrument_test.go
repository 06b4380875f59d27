package generator

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubEngine struct{ err error }

func (stubEngine) Name() string { return "stub" }

func (s stubEngine) Options(ctx context.Context, req OptionsRequest) ([]Draft, error) {
	return []Draft{{Content: "x"}}, s.err
}

func (s stubEngine) Refine(ctx context.Context, req RefineRequest) (Draft, error) {
	return Draft{Content: "y"}, s.err
}

type recordingObserver struct{ calls []string }

func (r *recordingObserver) ObserveGeneration(engine, op string, err error, _ time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.calls = append(r.calls, engine+"/"+op+"/"+status)
}

func TestInstrumentReportsCalls(t *testing.T) {
	obs := &recordingObserver{}
	e := Instrument(stubEngine{err: errors.New("down")}, obs)
	_, _ = e.Options(context.Background(), OptionsRequest{})
	_, _ = e.Refine(context.Background(), RefineRequest{})

	want := []string{"stub/options/error", "stub/refine/error"}
	if len(obs.calls) != 2 || obs.calls[0] != want[0] || obs.calls[1] != want[1] {
		t.Fatalf("want=%v got=%v", want, obs.calls)
	}
	if e.Name() != "stub" {
		t.Fatalf("name: want=%q got=%q", "stub", e.Name())
	}
}
