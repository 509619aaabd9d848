package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleUser          Role = "user"
	RoleAdmin         Role = "admin"
	RoleEventDirector Role = "event_director"
	RoleJudge         Role = "judge"
)

// StaffRole is the subset of roles the wizard may assign to staff users.
type StaffRole string

const (
	StaffRoleAdmin         StaffRole = "admin"
	StaffRoleEventDirector StaffRole = "event_director"
	StaffRoleJudge         StaffRole = "judge"
)

func ParseStaffRole(s string) (StaffRole, error) {
	switch r := StaffRole(s); r {
	case StaffRoleAdmin, StaffRoleEventDirector, StaffRoleJudge:
		return r, nil
	default:
		return "", fmt.Errorf("unknown staff role %q", s)
	}
}

func (r StaffRole) Role() Role {
	switch r {
	case StaffRoleAdmin:
		return RoleAdmin
	case StaffRoleEventDirector:
		return RoleEventDirector
	case StaffRoleJudge:
		return RoleJudge
	default:
		return RoleUser
	}
}

func (r StaffRole) DisplayName() string {
	switch r {
	case StaffRoleAdmin:
		return "Administrator"
	case StaffRoleEventDirector:
		return "Event Director"
	case StaffRoleJudge:
		return "Judge"
	default:
		return string(r)
	}
}

// Profile is an account holder.
//
// A secondary profile points at its master through MasterProfileID. That is a
// relation used for display only; the master profile is never owned by or
// mutated through the secondary.
type Profile struct {
	ID UserID

	FirstName string
	LastName  string
	Email     string
	Phone     *string
	MecaID    *int
	Role      Role

	IsSecondaryAccount bool
	MasterProfileID    *UserID

	ForcePasswordChange bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Profile) FullName() string {
	return FullName(p.FirstName, p.LastName)
}

// Clone returns a copy that shares no pointers with p.
func (p Profile) Clone() Profile {
	out := p
	out.Phone = clonePtr(p.Phone)
	out.MecaID = clonePtr(p.MecaID)
	out.MasterProfileID = clonePtr(p.MasterProfileID)
	return out
}
