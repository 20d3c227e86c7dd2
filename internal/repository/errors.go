package repository

import "errors"

var (
	// ErrRecordNotFound indicates the analysis record was not found
	ErrRecordNotFound = errors.New("analysis record not found")

	// ErrInvalidRecord indicates the record fails basic validation
	ErrInvalidRecord = errors.New("invalid analysis record")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
