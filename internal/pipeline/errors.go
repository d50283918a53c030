package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/KaramelBytes/tablescope/internal/charts"
	"github.com/KaramelBytes/tablescope/internal/loader"
)

// ErrEmptyDataset is returned when the loaded file has no rows.
var ErrEmptyDataset = errors.New("uploaded file is empty")

// RenderError indicates a failure while materializing or rendering one chart.
type RenderError struct {
	Kind   charts.Kind
	Column string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("render %s for %q: %v", e.Kind, e.Column, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// PanicError carries a panic recovered while running the pipeline.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("unexpected failure: %v", e.Value) }

// UserMessage converts any pipeline error into the single line shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		loadErr   *loader.LoadError
		renderErr *RenderError
		panicErr  *PanicError
	)
	switch {
	case errors.Is(err, ErrEmptyDataset):
		return "Uploaded file is empty."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Analysis was cancelled."
	case errors.As(err, &loadErr):
		return "Error loading file: " + loadErr.Error()
	case errors.As(err, &renderErr):
		return "Error rendering chart: " + renderErr.Error()
	case errors.As(err, &panicErr):
		return "Error loading file: " + panicErr.Error()
	}
	return "Error loading file: " + err.Error()
}

// IsInputError reports whether err was caused by the uploaded content rather
// than by the program.
func IsInputError(err error) bool {
	var loadErr *loader.LoadError
	return errors.Is(err, ErrEmptyDataset) || errors.As(err, &loadErr)
}
