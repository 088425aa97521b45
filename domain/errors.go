package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEvidence = errors.New("evidence already imported")
	ErrInvalidInput      = errors.New("invalid input")
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnsupportedSource = errors.New("unsupported integration source")
	ErrForbidden         = errors.New("forbidden")
	ErrRemoteSource      = errors.New("remote review source error")
)
