package domain

// UserID identifies a profile (account holder). Memberships reference it as their owner.
type UserID string

// MembershipID is an internal identifier for a membership record.
type MembershipID string

// MembershipTypeID identifies a membership type configuration in the catalog.
type MembershipTypeID string

// OperatorID is the console operator performing an action. Its format is
// controlled by whatever sits in front of the API.
type OperatorID string
