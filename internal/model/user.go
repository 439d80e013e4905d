package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                   uuid.UUID
	Address              string
	Quests               QuestState
	Version              int
	TotalQuestsCompleted int
	LastQuestCompletedAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// QuestState holds the two disjoint quest id sets of a user. A quest id
// never appears in both at once.
type QuestState struct {
	Pending   []uuid.UUID
	Completed []uuid.UUID
}

func (s QuestState) HasPending(id uuid.UUID) bool {
	for _, q := range s.Pending {
		if q == id {
			return true
		}
	}
	return false
}

func (s QuestState) HasCompleted(id uuid.UUID) bool {
	for _, q := range s.Completed {
		if q == id {
			return true
		}
	}
	return false
}
