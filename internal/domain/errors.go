package domain

import "fmt"

// Kind is one of the six error kinds named in spec.md §7.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindExtraction    Kind = "extraction"
	KindLLM           Kind = "llm"
	KindVectorBackend Kind = "vector_backend"
	KindInternal      Kind = "internal"
)

// Error is the single error type every kind is expressed through. Callers
// use errors.As to recover it and inspect Kind, or the Is* helpers below.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// ValidationError builds a KindValidation error: rejected input such as
// file type, size, too many files, bad archive, prompt-injection guard hit,
// unsupported extension.
func ValidationError(format string, args ...any) *Error {
	return newErr(KindValidation, format, args...)
}

// NotFoundError builds a KindNotFound error: project/résumé/JD missing when
// required.
func NotFoundError(format string, args ...any) *Error {
	return newErr(KindNotFound, format, args...)
}

// ExtractionErrorf builds a KindExtraction error: local document load
// failed or the validator rejected the content. Callers catch this
// internally and demote it to a fallback path; it is not meant to escape
// the ingestion engine.
func ExtractionErrorf(format string, args ...any) *Error {
	return newErr(KindExtraction, format, args...)
}

// WrapExtractionError wraps an underlying cause (e.g. a loader's I/O error)
// as a KindExtraction error.
func WrapExtractionError(err error, format string, args ...any) *Error {
	return wrapErr(KindExtraction, err, format, args...)
}

// LLMError builds a KindLLM error: generation-service failure (timeout,
// non-JSON response, upstream error).
func LLMError(err error, format string, args ...any) *Error {
	return wrapErr(KindLLM, err, format, args...)
}

// VectorBackendError builds a KindVectorBackend error: upsert or query
// failed.
func VectorBackendError(err error, format string, args ...any) *Error {
	return wrapErr(KindVectorBackend, err, format, args...)
}

// InternalError builds a KindInternal error: unexpected, should not occur
// in normal operation.
func InternalError(err error, format string, args ...any) *Error {
	return wrapErr(KindInternal, err, format, args...)
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if ok := asError(err, &e); !ok {
		return false
	}
	return e.Kind == kind
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
