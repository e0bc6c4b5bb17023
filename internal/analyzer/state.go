package analyzer

import (
	"time"

	"github.com/sdibella/chart-analyzer/internal/api"
)

// ErrorDisplayDuration is how long an error stays up unless replaced.
const ErrorDisplayDuration = 10 * time.Second

const (
	ErrMsgConnect  = "Failed to connect to the server. Please check your connection and try again."
	ErrMsgAnalysis = "An error occurred during analysis. Please try again."
)

type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseSelected
	PhaseAnalyzing
	PhaseResults
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseSelected:
		return "selected"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseResults:
		return "results"
	case PhaseError:
		return "error"
	}
	return "empty"
}

// State is everything the upload page shows.
type State struct {
	Phase          Phase
	File           *File
	PreviewVisible bool
	AnalyzeEnabled bool
	Busy           bool
	Result         *Result
	Error          string
	ErrorVisible   bool

	errGen uint64
	reqGen uint64
}

// --- Events ---

type Event interface{ analyzerEvent() }

// FileChosen comes from click-to-browse or drag-and-drop.
type FileChosen struct{ File File }

type AnalyzeClicked struct{}

// AnalyzeSucceeded and AnalyzeFailed answer the SubmitAnalysis with the
// same Gen.
type AnalyzeSucceeded struct {
	Gen    uint64
	Detail api.AnalysisDetail
}

// AnalyzeFailed carries the server message for a rejected request; a
// transport failure has Rejected false.
type AnalyzeFailed struct {
	Gen      uint64
	Rejected bool
	Message  string
}

type ResetClicked struct{}

// ErrorExpired fires when the dismiss timer for error Gen runs out.
type ErrorExpired struct{ Gen uint64 }

// ViewStored shows an analysis handed over from the dashboard.
type ViewStored struct{ Detail api.AnalysisDetail }

func (FileChosen) analyzerEvent()       {}
func (AnalyzeClicked) analyzerEvent()   {}
func (AnalyzeSucceeded) analyzerEvent() {}
func (AnalyzeFailed) analyzerEvent()    {}
func (ResetClicked) analyzerEvent()     {}
func (ErrorExpired) analyzerEvent()     {}
func (ViewStored) analyzerEvent()       {}

// FailureFrom classifies the error for request gen.
func FailureFrom(gen uint64, err error) AnalyzeFailed {
	if api.IsRejected(err) {
		return AnalyzeFailed{Gen: gen, Rejected: true, Message: api.Message(err, "")}
	}
	return AnalyzeFailed{Gen: gen}
}

// --- Effects ---

type Effect interface{ analyzerEffect() }

// ShowPreview renders the chosen file locally.
type ShowPreview struct{ File File }

type SubmitAnalysis struct {
	Gen  uint64
	File File
}

type ScrollToResults struct{}

type ScrollToTop struct{}

// ScheduleDismiss hides error Gen after the given delay.
type ScheduleDismiss struct {
	Gen   uint64
	After time.Duration
}

func (ShowPreview) analyzerEffect()     {}
func (SubmitAnalysis) analyzerEffect()  {}
func (ScrollToResults) analyzerEffect() {}
func (ScrollToTop) analyzerEffect()     {}
func (ScheduleDismiss) analyzerEffect() {}

// Update applies ev to s. It performs no I/O.
func Update(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case FileChosen:
		if msg, ok := Validate(e.File); !ok {
			if s.File == nil {
				s.Phase = PhaseError
			}
			return showError(s, msg)
		}
		f := e.File
		s.File = &f
		s.PreviewVisible = true
		s.AnalyzeEnabled = true
		s = hideError(s)
		if !s.Busy {
			s.Phase = PhaseSelected
		}
		return s, []Effect{ShowPreview{File: f}}

	case AnalyzeClicked:
		if s.File == nil || s.Busy {
			return s, nil
		}
		s.Result = nil
		s = hideError(s)
		s.Busy = true
		s.AnalyzeEnabled = false
		s.Phase = PhaseAnalyzing
		s.reqGen++
		return s, []Effect{SubmitAnalysis{Gen: s.reqGen, File: *s.File}}

	case AnalyzeSucceeded:
		if !s.Busy || e.Gen != s.reqGen {
			return s, nil
		}
		s.Busy = false
		s.Result = BuildResult(e.Detail)
		s.Phase = PhaseResults
		return s, []Effect{ScrollToResults{}}

	case AnalyzeFailed:
		if !s.Busy || e.Gen != s.reqGen {
			return s, nil
		}
		s.Busy = false
		s.AnalyzeEnabled = s.File != nil
		s.Phase = PhaseError
		msg := ErrMsgConnect
		if e.Rejected {
			msg = orDefault(e.Message, ErrMsgAnalysis)
		}
		return showError(s, msg)

	case ResetClicked:
		s = State{errGen: s.errGen, reqGen: s.reqGen}
		return s, []Effect{ScrollToTop{}}

	case ErrorExpired:
		if e.Gen == s.errGen && s.ErrorVisible {
			s = hideError(s)
		}
		return s, nil

	case ViewStored:
		s.File = nil
		s.PreviewVisible = false
		s.AnalyzeEnabled = false
		s.Busy = false
		s = hideError(s)
		s.Result = BuildResult(e.Detail)
		s.Phase = PhaseResults
		return s, []Effect{ScrollToResults{}}
	}
	return s, nil
}

func showError(s State, msg string) (State, []Effect) {
	s.errGen++
	s.Error = msg
	s.ErrorVisible = true
	return s, []Effect{ScheduleDismiss{Gen: s.errGen, After: ErrorDisplayDuration}}
}

func hideError(s State) State {
	s.Error = ""
	s.ErrorVisible = false
	return s
}
