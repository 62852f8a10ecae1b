// Package schema declares the input and output records of each AI flow and
// the validation rules applied to them before and after the model call.
package schema

import "errors"

// Flow operation names, used in errors, logs, and metrics.
const (
	OpDescribe  = "generate-description"
	OpSuggest   = "suggest-outfit"
	OpExtract   = "extract-outfit-items"
	OpSummarize = "summarize-wardrobe"
	OpSpeech    = "generate-speech"
)

// Kind categorizes flow failures that originate in this application rather
// than in the transport.
type Kind int

const (
	// KindInvalidInput means caller data violated the flow's input schema.
	// No network call was made.
	KindInvalidInput Kind = iota
	// KindInvalidOutput means the model answered with a payload that does not
	// satisfy the flow's output schema.
	KindInvalidOutput
	// KindEmptyResponse means the model answered with no usable payload.
	KindEmptyResponse
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindInvalidOutput:
		return "invalid model output"
	case KindEmptyResponse:
		return "empty model response"
	default:
		return "unknown"
	}
}

// Error is a tagged flow failure.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) a schema error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// EmptyResponse builds the error returned when the model produced nothing usable.
func EmptyResponse(op string) error {
	return &Error{Kind: KindEmptyResponse, Op: op}
}

// InvalidOutput wraps a parse failure of the model response.
func InvalidOutput(op string, err error) error {
	return &Error{Kind: KindInvalidOutput, Op: op, Err: err}
}
