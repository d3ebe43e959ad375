package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"cuelang.org/go/cue/token"

	"github.com/roach88/customobjects/internal/engine"
	"github.com/roach88/customobjects/internal/rules"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeInvalidArgs = "E002" // Bad source argument, no sources or no output
	ErrCodeManifest    = "E003" // Manifest unreadable or invalid
	ErrCodeRules       = "E004" // Rule table failed to compile
	ErrCodeNotFound    = "E005" // Path or run not found
	ErrCodeSourceRead  = "E006" // Export could not be read
	ErrCodeWriteFailed = "E007" // Output or metrics file write error
	ErrCodeHistory     = "E008" // History database error
	ErrCodeConfig      = "E009" // Environment or S3 client configuration error
)

// InputError is a problem with a command's inputs, found before any
// conversion runs.
type InputError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *InputError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// inputError wraps err with code. Missing files map to ErrCodeNotFound and
// rule compile errors keep their position.
func inputError(code string, err error) *InputError {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie
	}
	var ce *rules.CompileError
	if errors.As(err, &ce) {
		return &InputError{Code: ErrCodeRules, Message: ce.Message, Pos: ce.Pos}
	}
	if errors.Is(err, fs.ErrNotExist) {
		code = ErrCodeNotFound
	}
	return &InputError{Code: code, Message: err.Error()}
}

// jobErrorCode maps a conversion failure to a CLI code and exit code.
func jobErrorCode(err error) (string, int) {
	switch {
	case engine.IsSourceError(err):
		return ErrCodeSourceRead, ExitFailure
	case engine.IsDestinationError(err):
		return ErrCodeWriteFailed, ExitFailure
	case engine.IsPreconditionError(err):
		return ErrCodeInvalidArgs, ExitCommandError
	default:
		return ErrCodeGeneric, ExitFailure
	}
}

// outputInputError reports err and returns a command-level ExitError.
func outputInputError(formatter *OutputFormatter, code string, err error) error {
	ie := inputError(code, err)

	var details interface{}
	if ie.Pos.IsValid() {
		details = map[string]interface{}{
			"file":   ie.Pos.Filename(),
			"line":   ie.Pos.Line(),
			"column": ie.Pos.Column(),
		}
	}
	_ = formatter.Error(ie.Code, ie.Message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", ie.Code, ie.Message))
}
