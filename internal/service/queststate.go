package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/repository"
	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/google/uuid"
)

const stateUpdateRetries = 3

// QuestStateService moves a matched quest from pending to completed,
// replenishes pending with a fresh unseen quest and bumps the quest's
// completion counter.
type QuestStateService struct {
	users  UserRepository
	quests QuestRepository
	now    func() time.Time
}

func NewQuestStateService(users UserRepository, quests QuestRepository) *QuestStateService {
	return &QuestStateService{
		users:  users,
		quests: quests,
		now:    time.Now,
	}
}

func (s *QuestStateService) CompleteQuest(ctx context.Context, user *model.User, questID uuid.UUID) (*model.QuestState, error) {
	log := logger.Logger().With(
		zap.String("user_address", user.Address),
		zap.String("quest_id", questID.String()),
	)

	current := user
	for attempt := 0; attempt < stateUpdateRetries; attempt++ {
		if current.Quests.HasCompleted(questID) {
			// Already credited; nothing to move.
			state := current.Quests
			return &state, nil
		}

		state := transition(current.Quests, questID)

		catalog, err := s.quests.GetQuests(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load quest catalog: %w", err)
		}

		replacement := s.pickReplacement(catalog, state)
		if replacement != nil {
			state.Pending = append(state.Pending, replacement.ID)
		} else {
			log.Warn("no eligible replacement quest, pending left short")
		}

		err = s.users.UpdateUserQuestState(ctx, current.Address, state, current.Version)
		if err != nil {
			if errors.Is(err, repository.ErrStateConflict) {
				current, err = s.users.GetUserByAddress(ctx, current.Address)
				if err != nil {
					return nil, fmt.Errorf("failed to re-read user after conflict: %w", err)
				}
				continue
			}
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to persist quest state: %w", err)
		}

		if err := s.quests.IncrementQuestUserCount(ctx, questID); err != nil {
			// The user credit is already durable; a lost counter bump is
			// an accepted eventual-consistency gap, reconciled manually.
			log.Warn("failed to increment quest completion counter", zap.Error(err))
		}

		return &state, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrStateConflict, stateUpdateRetries)
}

// transition removes the quest from pending and appends it to completed.
// Absence from pending is tolerated; the onboarding quest is never pending.
func transition(state model.QuestState, questID uuid.UUID) model.QuestState {
	pending := make([]uuid.UUID, 0, len(state.Pending))
	for _, id := range state.Pending {
		if id != questID {
			pending = append(pending, id)
		}
	}

	completed := make([]uuid.UUID, len(state.Completed), len(state.Completed)+1)
	copy(completed, state.Completed)
	completed = append(completed, questID)

	return model.QuestState{Pending: pending, Completed: completed}
}

func (s *QuestStateService) pickReplacement(catalog []*model.Quest, state model.QuestState) *model.Quest {
	now := s.now().UTC()

	eligible := make([]*model.Quest, 0, len(catalog))
	for _, q := range catalog {
		if state.HasPending(q.ID) || state.HasCompleted(q.ID) {
			continue
		}
		if q.Expired(now) || q.AtCapacity() {
			continue
		}
		eligible = append(eligible, q)
	}
	if len(eligible) == 0 {
		return nil
	}

	return eligible[rand.Intn(len(eligible))]
}
