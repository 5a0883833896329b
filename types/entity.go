package types

import "time"

// Entity carries creation and update timestamps for persisted till records.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity stamped at now.
func NewEntity(now time.Time) Entity {
	now = now.UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touched returns a copy of the entity with UpdatedAt set to now.
func (e Entity) Touched(now time.Time) Entity {
	e.UpdatedAt = now.UTC()
	return e
}
