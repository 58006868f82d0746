package models

import (
	"strings"
	"time"
)

// Student represents a learner attending individual or group lessons.
type Student struct {
	ID        string    `db:"id" json:"id"`
	LastName  string    `db:"last_name" json:"last_name"`
	FirstName string    `db:"first_name" json:"first_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName renders "Last First".
func (s Student) DisplayName() string {
	return strings.TrimSpace(s.LastName + " " + s.FirstName)
}
