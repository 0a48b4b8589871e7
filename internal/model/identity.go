package model

// Identity is the tagged holder of a reservation: either a registered user
// (UserID > 0) or a guest described by name and email. The two modes are
// mutually exclusive; the ledger keys its uniqueness checks off UserID for
// registered holders and off Email for guests.
type Identity struct {
	UserID uint64 // non-zero for registered users
	Name   string // guest display name (guest mode only)
	Email  string // contact address, set in both modes
}

// RegisteredIdentity builds the identity of an authenticated user.
func RegisteredIdentity(userID uint64, email string) Identity {
	return Identity{UserID: userID, Email: email}
}

// GuestIdentity builds the identity of an anonymous guest.
func GuestIdentity(name, email string) Identity {
	return Identity{Name: name, Email: email}
}

// IsRegistered reports whether the identity refers to a registered user.
func (i Identity) IsRegistered() bool { return i.UserID != 0 }
