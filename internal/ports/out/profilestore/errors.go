package profilestore

import "errors"

var (
	// ErrNotFound indicates the requested profile does not exist.
	ErrNotFound = errors.New("profile not found")

	// ErrAlreadyExists indicates a profile already exists with the provided ID or MECA ID.
	ErrAlreadyExists = errors.New("profile already exists")

	// ErrEmailTaken indicates another profile already uses the email address.
	ErrEmailTaken = errors.New("email address already in use")
)
