package model

import (
	"time"

	"github.com/google/uuid"
)

type Farmer struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string    `gorm:"type:text;not null"`
	Location   string    `gorm:"type:text"`
	TotalAcres *float64
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Farmer) TableName() string {
	return "farmers"
}
