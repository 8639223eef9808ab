package shared

import (
	"errors"
	"fmt"
)

// RequestError is used when we want a specific error message and StatusCode.
// sane defaults are listed below. For routes that need custom error messages,
// a request error can be generated and a handler expects the router to return
// the exact message inside the request error msg
//
// Error codes should be bubbled where the RequestError msg is expected to be
// returned to the user. If the user should see a generic error message but
// the error chain should include more detail for logging purposes, then a generic
// error should be added that provides context
type RequestError struct {
	StatusCode int
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("status %d: err %v", r.StatusCode, r.Err)
}

func (r *RequestError) Unwrap() error {
	return r.Err
}

var (
	ErrMissingAuth   = &RequestError{Err: errors.New("missing authorization header"), StatusCode: 401}
	ErrInvalidFormat = &RequestError{Err: errors.New("invalid authentication format"), StatusCode: 401}
	ErrInvalidKeyLen = &RequestError{Err: errors.New("invalid API key length"), StatusCode: 401}
	ErrUnauthorized  = &RequestError{Err: errors.New("unauthorized"), StatusCode: 401}

	ErrNotAnImage = &RequestError{Err: errors.New("uploaded file is not an image"), StatusCode: 400}
	ErrNoFile     = &RequestError{Err: errors.New("no file provided"), StatusCode: 400}
	ErrFileTooBig = &RequestError{Err: errors.New("uploaded file exceeds size limit"), StatusCode: 413}

	ErrInternalServerError = &RequestError{Err: errors.New("internal server error"), StatusCode: 500}
)

// InferenceErrorKind classifies why an inference attempt failed. The kind is
// preserved through the error chain so logs and metrics can tell a malformed
// upload apart from a deployment defect.
type InferenceErrorKind string

const (
	KindDecode           InferenceErrorKind = "decode_error"
	KindUnsupportedMode  InferenceErrorKind = "unsupported_mode"
	KindShapeMismatch    InferenceErrorKind = "shape_mismatch"
	KindModelUnavailable InferenceErrorKind = "model_unavailable"
)

// StatusCode maps an error kind to the response status the host should use.
// Decode and mode failures are the client's responsibility to fix, a missing
// model is an operator problem, and a shape mismatch means the artifact and
// the postprocessor disagree on a contract.
func (k InferenceErrorKind) StatusCode() int {
	switch k {
	case KindDecode, KindUnsupportedMode:
		return 400
	case KindModelUnavailable:
		return 503
	default:
		return 500
	}
}

type InferenceError struct {
	Kind InferenceErrorKind
	Err  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

func NewInferenceError(kind InferenceErrorKind, err error) *InferenceError {
	return &InferenceError{Kind: kind, Err: err}
}
