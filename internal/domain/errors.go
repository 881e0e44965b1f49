package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidKind    = errors.New("invalid card kind")
	ErrKindNotOffered = errors.New("card kind not offered for this access tier")

	// ErrLayoutNotLoaded refuses a save while the stored layout could not
	// be read, so an empty board never replaces it.
	ErrLayoutNotLoaded = errors.New("stored layout not loaded; reload before saving")
)
