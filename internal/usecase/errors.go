package usecase

import "errors"

var (
	// ErrMissingCredentials aborts a sync before any network activity.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrEmptyDataset guards the previous document: a run that synced zero
	// matches must never replace it.
	ErrEmptyDataset = errors.New("dataset has no matches")
	// ErrInvalidDataset reports a structurally broken document.
	ErrInvalidDataset = errors.New("dataset failed validation")
	// ErrNothingToSync means the fixture table resolved empty.
	ErrNothingToSync = errors.New("no fixtures to sync")
)
