package types

import (
	"fmt"
)

// Phase is the lifecycle phase of a vault.
type Phase uint8

const (
	PhaseUninitialized Phase = iota
	PhaseActive
	PhaseFinalizing
	PhaseFinalized
)

var phaseNames = map[Phase]string{
	PhaseUninitialized: "uninitialized",
	PhaseActive:        "active",
	PhaseFinalizing:    "finalizing",
	PhaseFinalized:     "finalized",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// MarshalText renders the phase by name so snapshots stay readable.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown vault phase %q", string(text))
}

// Role names the authorization a call requires.
type Role uint8

const (
	RoleAnyone Role = iota
	RoleOwner
	RoleManager
	RoleOwnerOrManager
	RolePendingOwner
)

func (r Role) String() string {
	switch r {
	case RoleAnyone:
		return "anyone"
	case RoleOwner:
		return "owner"
	case RoleManager:
		return "manager"
	case RoleOwnerOrManager:
		return "owner_or_manager"
	case RolePendingOwner:
		return "pending_owner"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}
