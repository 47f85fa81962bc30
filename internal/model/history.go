package model

import (
	"time"

	"gorm.io/gorm"
)

type MirrorStatus string

const (
	StatusSuccess MirrorStatus = "SUCCESS"
	StatusFailed  MirrorStatus = "FAILED"
)

type History struct {
	gorm.Model
	Name       string       `gorm:"not null"`
	Label      string       `gorm:"not null"`
	SrcPath    string       `gorm:"not null"`
	DstPath    string       `gorm:"not null"`
	Status     MirrorStatus `gorm:"not null"`
	ErrMsg     string
	MirroredAt time.Time `gorm:"not null"`
}
