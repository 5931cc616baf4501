package tablegraph

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable matches every failure of the analysis service,
	// transport errors and timeouts alike.
	ErrServiceUnavailable = errors.New("document analysis service unavailable")

	// ErrNoSuitableTable means the service answered but found no table.
	// Callers may fall back to the text heuristics.
	ErrNoSuitableTable = errors.New("no suitable table found")
)

// AnalysisService submits a document and returns its block graph.
type AnalysisService interface {
	Analyze(ctx context.Context, document []byte) (*Graph, error)
}

// AnalysisFunc adapts a function to AnalysisService.
type AnalysisFunc func(ctx context.Context, document []byte) (*Graph, error)

func (f AnalysisFunc) Analyze(ctx context.Context, document []byte) (*Graph, error) {
	return f(ctx, document)
}

// ServiceError wraps a failed analysis call.
type ServiceError struct {
	Err     error
	Timeout bool
}

func (e *ServiceError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("document analysis timed out: %v", e.Err)
	}
	return fmt.Sprintf("document analysis failed: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrServiceUnavailable) match any ServiceError.
func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceUnavailable
}
