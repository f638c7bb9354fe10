package gateway

import (
	"errors"
	"fmt"

	"github.com/classpilot/backend/internal/llm"
)

// The gateway distinguishes five failure classes. Callers match them with
// errors.Is and translate them to HTTP responses.
var (
	// ErrTransientProvider covers provider rate limits (429) and 5xx
	// responses once retries, where applicable, are exhausted.
	ErrTransientProvider = errors.New("transient provider failure")

	// ErrMalformedResponse means the model output could not be parsed into
	// the expected JSON shape. The chat path never returns this; it degrades
	// to a raw-text reply instead.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyResult means the response parsed but no element survived
	// validation.
	ErrEmptyResult = errors.New("no usable results")

	// ErrUpstream covers every other provider failure: non-429 4xx,
	// network errors, empty completions.
	ErrUpstream = errors.New("upstream provider failure")
)

// classifyProviderError sorts a raw provider error into the taxonomy.
func classifyProviderError(err error) error {
	if llm.IsTransient(err) {
		return fmt.Errorf("%w: %v", ErrTransientProvider, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
