package model

import "time"

// MaxDescriptionLen bounds the free-text description of a profile.
const MaxDescriptionLen = 500

// Profile is a stored Direct API credential, identified by the (Owner, Alias)
// pair. Owner is the identity string from the caller's gateway token; Alias is
// a caller-chosen short name ("myads", "client1") distinguishing multiple
// accounts for the same owner. The OAuth token itself never appears here: it
// is encrypted at rest and surfaces only as an ephemeral plaintext inside a
// single outbound call.
type Profile struct {
	Owner       string
	Alias       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
