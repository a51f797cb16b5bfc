package commitmsg

import (
	"errors"
	"fmt"
)

// ErrGeneration matches every GenerationError.
var ErrGeneration = errors.New("commit message generation failed")

// Reason classifies a generation failure.
type Reason string

const (
	ReasonEmptyDiff    Reason = "empty diff"
	ReasonUnknownTool  Reason = "unknown tool"
	ReasonTimeout      Reason = "timeout"
	ReasonToolFailed   Reason = "tool failed"
	ReasonNoCandidates Reason = "no candidates"
)

// GenerationError reports why no commit message could be produced. The
// caller may retry with the same or another tool.
type GenerationError struct {
	Reason Reason
	Tool   string
	Err    error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("generate commit message with %s: %s", e.Tool, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }
