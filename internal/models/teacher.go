package models

import (
	"strings"
	"time"
)

// Teacher represents a tutor who owns a column in the schedule sheet.
type Teacher struct {
	ID         string    `db:"id" json:"id"`
	LastName   string    `db:"last_name" json:"last_name"`
	FirstName  string    `db:"first_name" json:"first_name"`
	Patronymic *string   `db:"patronymic" json:"patronymic,omitempty"`
	Room       *string   `db:"room" json:"room,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName renders "Last First".
func (t Teacher) DisplayName() string {
	return strings.TrimSpace(t.LastName + " " + t.FirstName)
}

// PatronymicValue returns the patronymic or an empty string.
func (t Teacher) PatronymicValue() string {
	if t.Patronymic == nil {
		return ""
	}
	return *t.Patronymic
}
