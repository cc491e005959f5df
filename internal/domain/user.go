package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the directory entry for a marketplace member. Registration and
// credentials live with the external auth service; only the fields needed to
// address notifications are kept here.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedOn time.Time `json:"created_on"`
}
