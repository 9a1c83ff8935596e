package models

import "time"

// AccessBan blocks one user from one note. Keyed uniquely by (NoteID, UserID)
// and upserted: re-banning a banned pair clears RevokedAt, unbanning sets it.
type AccessBan struct {
	NoteID    string
	UserID    string
	Reason    string
	CreatedAt time.Time
	RevokedAt *time.Time
}
