package entity

import (
	"time"

	"github.com/google/uuid"
)

// Farmer is the profile supplied by the identity provider.
// Consumed read-only as default context hints.
type Farmer struct {
	Id         uuid.UUID
	Name       string
	Location   string
	TotalAcres *float64
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
