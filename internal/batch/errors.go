package batch

import (
	"errors"
	"fmt"
	"strings"

	"docgen/internal/generate"
)

// ItemFailure is the failure of one batch entry.
type ItemFailure struct {
	Index   int
	Request generate.Request
	Kind    generate.Kind
	Err     error
}

func (f ItemFailure) Error() string {
	return fmt.Sprintf("item %d (%s): %v", f.Index, f.Kind, f.Err)
}

func (f ItemFailure) Unwrap() error { return f.Err }

// BatchError reports every failed item of a batch, ordered by index.
// Outputs of the successful items stay on disk.
type BatchError struct {
	Total    int
	Failures []ItemFailure
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch: %d of %d items failed", len(e.Failures), e.Total)
	for _, f := range e.ordered() {
		b.WriteString("; ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap lists rendering failures before the others so errors.As finds
// them first.
func (e *BatchError) Unwrap() []error {
	ordered := e.ordered()
	errs := make([]error, len(ordered))
	for i, f := range ordered {
		errs[i] = f.Err
	}
	return errs
}

func (e *BatchError) ordered() []ItemFailure {
	out := make([]ItemFailure, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Kind == generate.KindRendering {
			out = append(out, f)
		}
	}
	for _, f := range e.Failures {
		if f.Kind != generate.KindRendering {
			out = append(out, f)
		}
	}
	return out
}

// Indexes returns the submission indexes of the failed items.
func (e *BatchError) Indexes() []int {
	idx := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		idx[i] = f.Index
	}
	return idx
}

func (e *BatchError) ByKind() map[generate.Kind][]ItemFailure {
	out := make(map[generate.Kind][]ItemFailure)
	for _, f := range e.Failures {
		out[f.Kind] = append(out[f.Kind], f)
	}
	return out
}

// AsBatchError is a shorthand for errors.As with *BatchError.
func AsBatchError(err error) (*BatchError, bool) {
	var batchErr *BatchError
	ok := errors.As(err, &batchErr)
	return batchErr, ok
}
