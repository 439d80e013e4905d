package model

import (
	"time"

	"github.com/google/uuid"
)

type UploadStatus string

const (
	UploadStatusPending  UploadStatus = "pending"
	UploadStatusApproved UploadStatus = "approved"
	UploadStatusRejected UploadStatus = "rejected"
	UploadStatusError    UploadStatus = "error"
)

// Terminal reports whether the status may no longer change.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusApproved || s == UploadStatusRejected || s == UploadStatusError
}

type Upload struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	QuestID        *uuid.UUID
	ImageURL       string
	Classification Classification
	Status         UploadStatus
	Season         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
