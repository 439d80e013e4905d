package model

import (
	"time"

	"github.com/google/uuid"
)

// MatchAnyClassification is the sentinel target that accepts any nature
// submission regardless of its category.
const MatchAnyClassification = "*"

type Quest struct {
	ID             uuid.UUID
	Title          string
	Classification string
	Description    string
	Reward         int
	UserCount      int
	MaxUsers       *int
	CreatedAt      time.Time
	ExpiresAt      *time.Time
}

func (q *Quest) MatchesAny() bool {
	return q.Classification == MatchAnyClassification
}

func (q *Quest) Expired(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}

func (q *Quest) AtCapacity() bool {
	return q.MaxUsers != nil && q.UserCount >= *q.MaxUsers
}
