package domain

import "time"

// Group is a user-defined label for organising documents.
// Deleting a group clears the group reference on its documents rather than
// deleting them.
type Group struct {
	// ID is the unique identifier for the group.
	ID string

	// UserID is the owning user.
	UserID string

	// Name is the display name.
	Name string

	// CreatedAt is when the group was created.
	CreatedAt time.Time
}
