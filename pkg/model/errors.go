package model

import (
	"errors"
)

var (
	ErrTranscription       = errors.New("transcription failed")
	ErrExtraction          = errors.New("extraction failed")
	ErrMalformedOutput     = errors.New("malformed provider output")
	ErrExtractionTimeout   = errors.New("extraction timed out")
	ErrQRGeneration        = errors.New("qr generation failed")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// RetryableError marks a failure the caller may retry as-is.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func NewRetryableError(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}
