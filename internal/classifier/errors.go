package classifier

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is returned by Predict before a model was loaded or
// trained.
var ErrModelUnavailable = errors.New("classifier: model unavailable")

// PredictionError wraps a failure during inference.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("classifier: prediction failed: %v", e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// PersistenceError reports an artifact that could not be written, read or
// trusted.
type PersistenceError struct {
	Path string
	Op   string // "save" or "load"
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("classifier: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
