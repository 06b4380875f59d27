package workflow

import (
	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
)

type Name string

const (
	NameForm       Name = "form"
	NameGenerating Name = "generating"
	NameOptions    Name = "options"
	NameResult     Name = "result"
)

// Input is what the user typed into the form. It is kept verbatim so a failed
// attempt can be retried without retyping.
type Input struct {
	Subject string
	Params  domain.Params
}

// State is one of FormState, GeneratingState, OptionsState or ResultState.
type State interface {
	Name() Name
	isState()
}

// FormState collects input. Errors is non-empty after a validation failure and
// ErrorSource tells client-side checks apart from server rejections. Failure
// holds the last non-validation error, if any.
type FormState struct {
	Input       Input
	Errors      apierr.Fields
	ErrorSource apierr.Source
	Failure     error
}

// GeneratingState has one generate-options call in flight. Previous is set
// when regenerating from an options list and is restored on failure.
type GeneratingState struct {
	Input    Input
	Previous *OptionsState
}

type OptionsState struct {
	Input                  Input
	Options                []domain.Option
	ActiveTab              int
	RegenerateInstructions string
	Materializing          bool
	Failure                error
}

type ResultState struct {
	Input          Input
	Recommendation domain.Recommendation
	Options        []domain.Option
}

func (FormState) Name() Name       { return NameForm }
func (GeneratingState) Name() Name { return NameGenerating }
func (OptionsState) Name() Name    { return NameOptions }
func (ResultState) Name() Name     { return NameResult }

func (FormState) isState()       {}
func (GeneratingState) isState() {}
func (OptionsState) isState()    {}
func (ResultState) isState()     {}

func cloneOptions(in []domain.Option) []domain.Option {
	if in == nil {
		return nil
	}
	out := make([]domain.Option, len(in))
	copy(out, in)
	return out
}

func cloneFields(in apierr.Fields) apierr.Fields {
	if in == nil {
		return nil
	}
	out := make(apierr.Fields, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// clone returns a copy that shares no mutable memory with s.
func clone(s State) State {
	switch st := s.(type) {
	case FormState:
		st.Errors = cloneFields(st.Errors)
		return st
	case GeneratingState:
		if st.Previous != nil {
			prev := clone(*st.Previous).(OptionsState)
			st.Previous = &prev
		}
		return st
	case OptionsState:
		st.Options = cloneOptions(st.Options)
		return st
	case ResultState:
		st.Options = cloneOptions(st.Options)
		return st
	default:
		return s
	}
}
