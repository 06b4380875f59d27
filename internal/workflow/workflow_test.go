package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/wire"
)

type fakeRemote struct {
	genCalls    atomic.Int32
	createCalls atomic.Int32

	genErr     error
	createErr  error
	genGate    chan struct{}
	createGate chan struct{}

	mu         sync.Mutex
	lastGen    wire.GenerateOptionsRequest
	lastCreate wire.CreateFromOptionRequest
}

func twoOptions() []domain.Option {
	return []domain.Option{
		{ID: 1, Name: "Option 1", Focus: "technical_expertise", Content: "Octocat writes great code.", WordCount: 4},
		{ID: 2, Name: "Option 2", Focus: "collaboration", Content: "Octocat is a generous collaborator.", WordCount: 5},
	}
}

func (f *fakeRemote) GenerateOptions(ctx context.Context, req wire.GenerateOptionsRequest) ([]domain.Option, error) {
	f.genCalls.Add(1)
	f.mu.Lock()
	f.lastGen = req
	f.mu.Unlock()
	if f.genGate != nil {
		select {
		case <-f.genGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.genErr != nil {
		return nil, f.genErr
	}
	return twoOptions(), nil
}

func (f *fakeRemote) CreateFromOption(ctx context.Context, req wire.CreateFromOptionRequest) (*domain.Recommendation, error) {
	f.createCalls.Add(1)
	f.mu.Lock()
	f.lastCreate = req
	f.mu.Unlock()
	if f.createGate != nil {
		<-f.createGate
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Recommendation{
		ID:                   uuid.New(),
		GithubUsername:       req.GithubUsername,
		Content:              req.SelectedOption.Content,
		WordCount:            req.SelectedOption.WordCount,
		Params:               req.Params,
		CurrentVersionNumber: 1,
		SelectedOptionID:     req.SelectedOption.ID,
	}, nil
}

func octocatInput() Input {
	return Input{
		Subject: "octocat",
		Params: domain.Params{
			RecommendationType:  domain.TypeProfessional,
			Tone:                domain.ToneFriendly,
			WorkingRelationship: "We maintained the same library for two years.",
		},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOctocatScenario(t *testing.T) {
	r := &fakeRemote{}
	w := New(r, nil)

	if err := w.Submit(context.Background(), octocatInput()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	opts, ok := w.State().(OptionsState)
	if !ok {
		t.Fatalf("state: want=%q got=%q", NameOptions, w.State().Name())
	}
	if len(opts.Options) != 2 {
		t.Fatalf("options: want=2 got=%d", len(opts.Options))
	}
	if r.lastGen.GithubUsername != "octocat" || r.lastGen.Tone != domain.ToneFriendly || r.lastGen.Length != domain.LengthMedium {
		t.Fatalf("unexpected request: %+v", r.lastGen)
	}

	rec, err := w.Select(context.Background(), 2)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if rec.CurrentVersionNumber != 1 {
		t.Fatalf("current version: want=1 got=%d", rec.CurrentVersionNumber)
	}
	if rec.Content != opts.Options[1].Content {
		t.Fatalf("content: want=%q got=%q", opts.Options[1].Content, rec.Content)
	}
	if len(r.lastCreate.AllOptions) != 2 || r.lastCreate.SelectedOption.ID != 2 {
		t.Fatalf("create request must carry the full candidate set: %+v", r.lastCreate)
	}
	if _, ok := w.State().(ResultState); !ok {
		t.Fatalf("state: want=%q got=%q", NameResult, w.State().Name())
	}
}

func TestClientValidationMakesNoCall(t *testing.T) {
	cases := map[string]Input{
		"empty subject":   {Params: domain.Params{WorkingRelationship: "x"}},
		"bad subject":     {Subject: "-bad-", Params: domain.Params{WorkingRelationship: "x"}},
		"no relationship": {Subject: "octocat"},
		"unknown tone":    {Subject: "octocat", Params: domain.Params{WorkingRelationship: "x", Tone: "snarky"}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			r := &fakeRemote{}
			w := New(r, nil)
			err := w.Submit(context.Background(), in)
			if !apierr.IsValidation(err) {
				t.Fatalf("want validation error, got %v", err)
			}
			if r.genCalls.Load() != 0 {
				t.Fatalf("calls: want=0 got=%d", r.genCalls.Load())
			}
			fs, ok := w.State().(FormState)
			if !ok || fs.ErrorSource != apierr.SourceClient || len(fs.Errors) == 0 {
				t.Fatalf("want form with client errors, got %#v", w.State())
			}
			if fs.Input != in {
				t.Fatalf("input must be preserved")
			}
		})
	}
}

func TestURLSubjectIsNormalized(t *testing.T) {
	r := &fakeRemote{}
	w := New(r, nil)
	in := octocatInput()
	in.Subject = "https://github.com/octocat/hello-world.git"
	if err := w.Submit(context.Background(), in); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.lastGen.GithubUsername != "octocat/hello-world" {
		t.Fatalf("subject: want=%q got=%q", "octocat/hello-world", r.lastGen.GithubUsername)
	}
}

func TestRemoteFailureReturnsToFormWithInput(t *testing.T) {
	r := &fakeRemote{genErr: apierr.Wrap(apierr.KindNetwork, errors.New("dial"))}
	w := New(r, nil)
	in := octocatInput()

	err := w.Submit(context.Background(), in)
	if apierr.KindOf(err) != apierr.KindNetwork {
		t.Fatalf("kind: want=%q got=%v", apierr.KindNetwork, err)
	}
	fs, ok := w.State().(FormState)
	if !ok {
		t.Fatalf("state: want=%q got=%q", NameForm, w.State().Name())
	}
	if fs.Input != in || fs.Failure == nil || len(fs.Errors) != 0 {
		t.Fatalf("unexpected form state: %#v", fs)
	}

	r.genErr = nil
	if err := w.Submit(context.Background(), fs.Input); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestServerValidationIsDistinct(t *testing.T) {
	r := &fakeRemote{genErr: apierr.ServerValidation(apierr.Fields{FieldSubject: "user not found"})}
	w := New(r, nil)
	_ = w.Submit(context.Background(), octocatInput())

	fs, ok := w.State().(FormState)
	if !ok {
		t.Fatalf("state: want=%q got=%q", NameForm, w.State().Name())
	}
	if fs.ErrorSource != apierr.SourceServer || fs.Errors[FieldSubject] != "user not found" {
		t.Fatalf("want server-sourced subject error, got %#v", fs)
	}
}

func TestSecondSubmitWhileGeneratingIsRefused(t *testing.T) {
	r := &fakeRemote{genGate: make(chan struct{})}
	w := New(r, nil)

	errc := make(chan error, 1)
	go func() { errc <- w.Submit(context.Background(), octocatInput()) }()
	waitFor(t, func() bool { return r.genCalls.Load() == 1 })

	if err := w.Submit(context.Background(), octocatInput()); !errors.Is(err, ErrInFlight) {
		t.Fatalf("want ErrInFlight got=%v", err)
	}
	close(r.genGate)
	if err := <-errc; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if r.genCalls.Load() != 1 {
		t.Fatalf("calls: want=1 got=%d", r.genCalls.Load())
	}
}

func TestDoubleSelectPersistsOnce(t *testing.T) {
	r := &fakeRemote{createGate: make(chan struct{})}
	w := New(r, nil)
	if err := w.Submit(context.Background(), octocatInput()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := w.Select(context.Background(), 1)
		errc <- err
	}()
	waitFor(t, func() bool { return r.createCalls.Load() == 1 })

	if _, err := w.Select(context.Background(), 2); !errors.Is(err, ErrInFlight) {
		t.Fatalf("want ErrInFlight got=%v", err)
	}
	close(r.createGate)
	if err := <-errc; err != nil {
		t.Fatalf("first select: %v", err)
	}
	if _, err := w.Select(context.Background(), 2); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("select after result: want ErrInvalidTransition got=%v", err)
	}
	if r.createCalls.Load() != 1 {
		t.Fatalf("persist calls: want=1 got=%d", r.createCalls.Load())
	}
}

func TestSelectFailureStaysInOptions(t *testing.T) {
	r := &fakeRemote{createErr: apierr.Wrap(apierr.KindServer, errors.New("boom"))}
	w := New(r, nil)
	_ = w.Submit(context.Background(), octocatInput())

	if _, err := w.Select(context.Background(), 1); apierr.KindOf(err) != apierr.KindServer {
		t.Fatalf("kind: want=%q got=%v", apierr.KindServer, err)
	}
	st, ok := w.State().(OptionsState)
	if !ok || st.Materializing || st.Failure == nil || len(st.Options) != 2 {
		t.Fatalf("want options state with failure, got %#v", w.State())
	}

	r.createErr = nil
	if _, err := w.Select(context.Background(), 1); err != nil {
		t.Fatalf("retry select: %v", err)
	}
}

func TestSelectUnknownOption(t *testing.T) {
	r := &fakeRemote{}
	w := New(r, nil)
	_ = w.Submit(context.Background(), octocatInput())
	if _, err := w.Select(context.Background(), 9); !apierr.IsValidation(err) {
		t.Fatalf("want validation error got=%v", err)
	}
	if r.createCalls.Load() != 0 {
		t.Fatalf("no persistence call expected")
	}
}

func TestRegenerateFailureRestoresOptions(t *testing.T) {
	r := &fakeRemote{}
	w := New(r, nil)
	_ = w.Submit(context.Background(), octocatInput())
	if err := w.SetActiveTab(2); err != nil {
		t.Fatalf("SetActiveTab: %v", err)
	}

	r.genErr = apierr.Wrap(apierr.KindTimeout, errors.New("slow"))
	if err := w.Regenerate(context.Background(), "more about mentoring"); apierr.KindOf(err) != apierr.KindTimeout {
		t.Fatalf("kind: want=%q got=%v", apierr.KindTimeout, err)
	}
	st, ok := w.State().(OptionsState)
	if !ok || st.ActiveTab != 2 || st.Failure == nil {
		t.Fatalf("want previous options restored, got %#v", w.State())
	}
	if r.lastGen.RegenerateInstructions != "more about mentoring" {
		t.Fatalf("instructions not sent: %+v", r.lastGen)
	}

	r.genErr = nil
	if err := w.Regenerate(context.Background(), "shorter"); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	st = w.State().(OptionsState)
	if st.RegenerateInstructions != "shorter" || st.ActiveTab != 1 {
		t.Fatalf("unexpected options state: %#v", st)
	}
}

func TestEditDetailsAndStartOver(t *testing.T) {
	w := New(&fakeRemote{}, nil)
	in := octocatInput()
	_ = w.Submit(context.Background(), in)

	if err := w.EditDetails(); err != nil {
		t.Fatalf("EditDetails: %v", err)
	}
	fs, ok := w.State().(FormState)
	if !ok || fs.Input != in {
		t.Fatalf("edit details must keep input, got %#v", w.State())
	}

	_ = w.Submit(context.Background(), in)
	if _, err := w.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := w.StartOver(); err != nil {
		t.Fatalf("StartOver: %v", err)
	}
	fs, ok = w.State().(FormState)
	if !ok || fs.Input != (Input{}) {
		t.Fatalf("start over must reset input, got %#v", w.State())
	}
}

func TestStartOverDiscardsPendingGeneration(t *testing.T) {
	r := &fakeRemote{genGate: make(chan struct{})}
	w := New(r, nil)

	errc := make(chan error, 1)
	go func() { errc <- w.Submit(context.Background(), octocatInput()) }()
	waitFor(t, func() bool { return r.genCalls.Load() == 1 })

	_ = w.StartOver()
	close(r.genGate)
	if err := <-errc; !errors.Is(err, ErrDiscarded) {
		t.Fatalf("want ErrDiscarded got=%v", err)
	}
	if _, ok := w.State().(FormState); !ok {
		t.Fatalf("late options must not be applied, got %q", w.State().Name())
	}
}

func TestCloseCancelsInFlight(t *testing.T) {
	r := &fakeRemote{genGate: make(chan struct{})}
	w := New(r, nil)

	errc := make(chan error, 1)
	go func() { errc <- w.Submit(context.Background(), octocatInput()) }()
	waitFor(t, func() bool { return r.genCalls.Load() == 1 })

	w.Close()
	if err := <-errc; !errors.Is(err, ErrDiscarded) {
		t.Fatalf("want ErrDiscarded got=%v", err)
	}
	if err := w.Submit(context.Background(), octocatInput()); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed got=%v", err)
	}
}

func TestStateIsACopy(t *testing.T) {
	w := New(&fakeRemote{}, nil)
	_ = w.Submit(context.Background(), octocatInput())
	st := w.State().(OptionsState)
	st.Options[0].Content = "mutated"
	if w.State().(OptionsState).Options[0].Content == "mutated" {
		t.Fatalf("State must not expose internal slices")
	}
}
