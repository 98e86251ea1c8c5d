package model

import "time"

// Field represents a reservable sports field.  Fields are reference
// data: they change rarely after creation and are mirrored into the
// field cache for fast listing.  This struct corresponds to a row in
// the `fields` table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique display name of the field.
//  Address   – street address of the venue.
//  Capacity  – maximum number of players the field supports.
//  Indoor    – whether the field is covered.
//  IsActive  – whether the field can be booked.
//  CreatedAt – timestamp when the field was created.
//  UpdatedAt – timestamp of last update.
type Field struct {
	ID        uint64    `json:"id"`         // fields.id
	Name      string    `json:"name"`       // fields.name
	Address   string    `json:"address"`    // fields.address
	Capacity  uint32    `json:"capacity"`   // fields.capacity
	Indoor    bool      `json:"indoor"`     // fields.indoor
	IsActive  bool      `json:"is_active"`  // fields.is_active
	CreatedAt time.Time `json:"created_at"` // fields.created_at
	UpdatedAt time.Time `json:"updated_at"` // fields.updated_at
}
