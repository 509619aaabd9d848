package membershipstore

import "errors"

var (
	// ErrNotFound indicates the requested membership does not exist.
	ErrNotFound = errors.New("membership not found")

	// ErrMasterNotEligible indicates the referenced master is itself a secondary.
	ErrMasterNotEligible = errors.New("membership cannot act as a master")

	// ErrMasterUnpaid indicates the master must be paid before secondaries are added.
	ErrMasterUnpaid = errors.New("master membership must be paid to add secondaries")

	// ErrSecondaryLimit indicates the master already carries the maximum number of secondaries.
	ErrSecondaryLimit = errors.New("maximum number of secondary memberships reached")

	// ErrLoginEmailRequired indicates a login was requested for a secondary without an email.
	ErrLoginEmailRequired = errors.New("email is required when creating a login for the secondary")

	// ErrEmailTaken indicates the secondary login email already belongs to a profile.
	ErrEmailTaken = errors.New("a profile with this email already exists")

	// ErrTypeNotFound indicates the membership type does not exist or is inactive.
	ErrTypeNotFound = errors.New("membership type not found")
)
