// Package workflow drives the creation of a single recommendation:
// form input, candidate option generation, selection and materialization.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/platform/logger"
	"github.com/yungbote/gitrec/internal/subject"
	"github.com/yungbote/gitrec/internal/wire"
)

var (
	ErrInFlight          = errors.New("workflow: operation already in flight")
	ErrClosed            = errors.New("workflow: closed")
	ErrInvalidTransition = errors.New("workflow: invalid transition")
	// ErrDiscarded is returned when the workflow moved on while a call was
	// pending and its result was dropped.
	ErrDiscarded = errors.New("workflow: result discarded")
)

// Field keys shared by client-side checks and server rejections.
const (
	FieldSubject             = "subject"
	FieldWorkingRelationship = "working_relationship"
	FieldRecommendationType  = "recommendation_type"
	FieldTone                = "tone"
	FieldLength              = "length"
	FieldOption              = "option"
)

// Remote is the generation boundary.
type Remote interface {
	GenerateOptions(ctx context.Context, req wire.GenerateOptionsRequest) ([]domain.Option, error)
	CreateFromOption(ctx context.Context, req wire.CreateFromOptionRequest) (*domain.Recommendation, error)
}

type Workflow struct {
	remote Remote
	log    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	epoch  uint64
	closed bool
}

func New(remote Remote, log *logger.Logger) *Workflow {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Workflow{
		remote: remote,
		log:    log.With("component", "GenerationWorkflow"),
		ctx:    ctx,
		cancel: cancel,
		state:  FormState{},
	}
}

// State returns a copy of the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return clone(w.state)
}

// Close cancels pending calls. Results that arrive afterwards are dropped.
func (w *Workflow) Close() {
	w.mu.Lock()
	w.closed = true
	w.epoch++
	w.mu.Unlock()
	w.cancel()
}

// Validate checks the form input without touching the network.
func Validate(in Input) apierr.Fields {
	fields := apierr.Fields{}
	if strings.TrimSpace(in.Subject) == "" {
		fields[FieldSubject] = "GitHub username is required"
	} else if _, err := subject.Parse(in.Subject); err != nil {
		fields[FieldSubject] = "enter a GitHub username, owner/repo or github.com URL"
	}
	if strings.TrimSpace(in.Params.WorkingRelationship) == "" {
		fields[FieldWorkingRelationship] = "describe how you worked together"
	}
	p := in.Params
	if p.RecommendationType != "" && !domain.ValidType(p.RecommendationType) {
		fields[FieldRecommendationType] = fmt.Sprintf("unknown type %q", p.RecommendationType)
	}
	if p.Tone != "" && !domain.ValidTone(p.Tone) {
		fields[FieldTone] = fmt.Sprintf("unknown tone %q", p.Tone)
	}
	if p.Length != "" && !domain.ValidLength(p.Length) {
		fields[FieldLength] = fmt.Sprintf("unknown length %q", p.Length)
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Submit moves form -> generating -> options. Validation failures stay in the
// form without a network call. Remote failures return to the form with the
// input preserved.
func (w *Workflow) Submit(ctx context.Context, in Input) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	switch w.state.(type) {
	case FormState:
	case GeneratingState:
		w.mu.Unlock()
		return ErrInFlight
	default:
		w.mu.Unlock()
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, w.state.Name())
	}
	if fields := Validate(in); fields != nil {
		w.state = FormState{Input: in, Errors: fields, ErrorSource: apierr.SourceClient}
		w.mu.Unlock()
		return apierr.Validation(cloneFields(fields))
	}
	w.epoch++
	epoch := w.epoch
	w.state = GeneratingState{Input: in}
	w.mu.Unlock()

	req := buildGenerateRequest(in, "")
	w.log.Debug("generating options", "subject", req.GithubUsername, "type", req.RecommendationType)

	callCtx, done := w.callContext(ctx)
	opts, err := w.remote.GenerateOptions(callCtx, req)
	done()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch || w.closed {
		return ErrDiscarded
	}
	if err == nil && len(opts) == 0 {
		err = apierr.Wrap(apierr.KindServer, errors.New("no options returned"))
	}
	if err != nil {
		w.log.Warn("generate options failed", "kind", apierr.KindOf(err), "error", err)
		w.state = formAfterFailure(in, err)
		return err
	}
	w.state = OptionsState{Input: in, Options: cloneOptions(opts), ActiveTab: opts[0].ID}
	return nil
}

// Regenerate asks for a fresh option list from the options state. On failure
// the previous list is restored.
func (w *Workflow) Regenerate(ctx context.Context, instructions string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	var prev OptionsState
	switch st := w.state.(type) {
	case OptionsState:
		if st.Materializing {
			w.mu.Unlock()
			return ErrInFlight
		}
		prev = st
	case GeneratingState:
		w.mu.Unlock()
		return ErrInFlight
	default:
		w.mu.Unlock()
		return fmt.Errorf("%w: regenerate from %s", ErrInvalidTransition, w.state.Name())
	}
	w.epoch++
	epoch := w.epoch
	prev.Failure = nil
	w.state = GeneratingState{Input: prev.Input, Previous: &prev}
	w.mu.Unlock()

	instructions = strings.TrimSpace(instructions)
	callCtx, done := w.callContext(ctx)
	opts, err := w.remote.GenerateOptions(callCtx, buildGenerateRequest(prev.Input, instructions))
	done()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch || w.closed {
		return ErrDiscarded
	}
	if err == nil && len(opts) == 0 {
		err = apierr.Wrap(apierr.KindServer, errors.New("no options returned"))
	}
	if err != nil {
		w.log.Warn("regenerate options failed", "kind", apierr.KindOf(err), "error", err)
		prev.Failure = err
		w.state = prev
		return err
	}
	w.state = OptionsState{
		Input:                  prev.Input,
		Options:                cloneOptions(opts),
		ActiveTab:              opts[0].ID,
		RegenerateInstructions: instructions,
	}
	return nil
}

func (w *Workflow) SetActiveTab(optionID int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, ok := w.state.(OptionsState)
	if !ok {
		return fmt.Errorf("%w: set tab from %s", ErrInvalidTransition, w.state.Name())
	}
	if _, found := domain.FindOption(st.Options, optionID); !found {
		return apierr.Validation(apierr.Fields{FieldOption: fmt.Sprintf("no option %d", optionID)})
	}
	st.ActiveTab = optionID
	w.state = st
	return nil
}

// Select materializes the chosen option as a new recommendation. At most one
// materialization runs per options list: a second call while one is pending
// returns ErrInFlight without touching the network. On failure the workflow
// stays in the options state.
func (w *Workflow) Select(ctx context.Context, optionID int) (*domain.Recommendation, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	st, ok := w.state.(OptionsState)
	if !ok {
		name := w.state.Name()
		w.mu.Unlock()
		if name == NameGenerating {
			return nil, ErrInFlight
		}
		return nil, fmt.Errorf("%w: select from %s", ErrInvalidTransition, name)
	}
	if st.Materializing {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	chosen, found := domain.FindOption(st.Options, optionID)
	if !found {
		w.mu.Unlock()
		return nil, apierr.Validation(apierr.Fields{FieldOption: fmt.Sprintf("no option %d", optionID)})
	}
	st.Materializing = true
	st.ActiveTab = optionID
	st.Failure = nil
	w.state = st
	epoch := w.epoch
	w.mu.Unlock()

	sub, _ := subject.Parse(st.Input.Subject)
	req := wire.CreateFromOptionRequest{
		GithubUsername: sub.String(),
		Params:         st.Input.Params.WithDefaults(),
		SelectedOption: chosen,
		AllOptions:     cloneOptions(st.Options),
	}
	callCtx, done := w.callContext(ctx)
	rec, err := w.remote.CreateFromOption(callCtx, req)
	done()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch || w.closed {
		return nil, ErrDiscarded
	}
	if err == nil && rec == nil {
		err = apierr.Wrap(apierr.KindServer, errors.New("empty recommendation"))
	}
	if err != nil {
		w.log.Warn("materialize failed", "option_id", optionID, "kind", apierr.KindOf(err), "error", err)
		st.Materializing = false
		st.Failure = err
		w.state = st
		return nil, err
	}
	w.log.Info("recommendation created", "recommendation_id", rec.ID, "option_id", optionID)
	w.state = ResultState{Input: st.Input, Recommendation: *rec, Options: st.Options}
	out := *rec
	return &out, nil
}

// EditDetails returns to the form keeping the entered values. Pending results
// are discarded.
func (w *Workflow) EditDetails() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	var in Input
	switch st := w.state.(type) {
	case FormState:
		return nil
	case GeneratingState:
		in = st.Input
	case OptionsState:
		in = st.Input
	case ResultState:
		in = st.Input
	}
	w.epoch++
	w.state = FormState{Input: in}
	return nil
}

// StartOver resets to an empty form from any state.
func (w *Workflow) StartOver() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.epoch++
	w.state = FormState{}
	return nil
}

// callContext derives a call context that is also cancelled by Close.
func (w *Workflow) callContext(ctx context.Context) (context.Context, func()) {
	c, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

func buildGenerateRequest(in Input, instructions string) wire.GenerateOptionsRequest {
	sub, _ := subject.Parse(in.Subject)
	return wire.GenerateOptionsRequest{
		GithubUsername:         sub.String(),
		Params:                 in.Params.WithDefaults(),
		RegenerateInstructions: instructions,
	}
}

// formAfterFailure keeps server validation fields apart from transport failures.
func formAfterFailure(in Input, err error) FormState {
	fs := FormState{Input: in, Failure: err}
	if apierr.IsValidation(err) {
		fs.Errors = cloneFields(apierr.FieldsOf(err))
		fs.ErrorSource = apierr.SourceServer
		if e, ok := apierr.As(err); ok && e.Source != "" {
			fs.ErrorSource = e.Source
		}
	}
	return fs
}
