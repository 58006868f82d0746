package models

import "time"

// AliasKind names the directory an alias points into.
type AliasKind string

const (
	AliasKindTeacher AliasKind = "teacher"
	AliasKindStudent AliasKind = "student"
	AliasKindGroup   AliasKind = "group"
)

// Valid reports whether the kind is known.
func (k AliasKind) Valid() bool {
	switch k {
	case AliasKindTeacher, AliasKindStudent, AliasKindGroup:
		return true
	}
	return false
}

// NameAlias maps raw spreadsheet text to a directory entity. At most one
// alias exists per (alias, kind); the latest write wins.
type NameAlias struct {
	ID        string    `db:"id" json:"id"`
	Alias     string    `db:"alias" json:"alias"`
	Kind      AliasKind `db:"kind" json:"kind"`
	EntityID  string    `db:"entity_id" json:"entity_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
