// Package authority decides which connected client executes shared mutations.
//
// The record store has no transactions, so correctness relies on a
// single-writer convention: every client evaluates the same pure function
// over the same inputs and only the selected one runs registry mutations and
// trigger passes. There is no election protocol; agreement falls out of the
// function being deterministic.
package authority

// Role is the part the local client plays for a given record
type Role string

const (
	// RoleOwner means the caster's owning player executes
	RoleOwner Role = "owner"

	// RoleGM means the active GM executes on the owner's behalf
	RoleGM Role = "gm"

	// RoleNone means some other client is responsible
	RoleNone Role = "none"
)

// Context is everything Select needs, as seen by the local client
type Context struct {
	// ClientUserID identifies the local client
	ClientUserID string

	// ClientIsGM is true when the local client is a GM
	ClientIsGM bool

	// ActiveGMUserID is the designated primary GM, empty when none connected
	ActiveGMUserID string

	// OwnerUserID is the user owning the record's caster
	OwnerUserID string

	// OwnerOnline is true when the owning player has a connected client
	OwnerOnline bool
}

// Select returns the role the local client should assume: the caster's owner
// when online, otherwise the active GM.
func Select(ctx Context) Role {
	if ctx.OwnerOnline && ctx.OwnerUserID != "" {
		if ctx.ClientUserID == ctx.OwnerUserID {
			return RoleOwner
		}
		return RoleNone
	}

	if ctx.ActiveGMUserID != "" && ctx.ClientUserID == ctx.ActiveGMUserID {
		return RoleGM
	}

	return RoleNone
}

// IsAuthority reports whether the local client should execute
func IsAuthority(ctx Context) bool {
	return Select(ctx) != RoleNone
}
