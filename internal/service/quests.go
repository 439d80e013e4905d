package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/repository"

	"github.com/google/uuid"
)

type QuestService struct {
	repo QuestRepository
}

func NewQuestService(repo QuestRepository) *QuestService {
	return &QuestService{
		repo: repo,
	}
}

func (s *QuestService) GetQuests(ctx context.Context) ([]*model.Quest, error) {
	quests, err := s.repo.GetQuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get quests: %w", err)
	}
	return quests, nil
}

func (s *QuestService) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error) {
	quest, err := s.repo.GetQuestByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	return quest, nil
}

func (s *QuestService) CreateQuest(ctx context.Context, quest *model.Quest) (uuid.UUID, error) {
	if quest.Title == "" || quest.Classification == "" {
		return uuid.Nil, fmt.Errorf("quest title and classification are required")
	}
	if quest.Reward <= 0 {
		return uuid.Nil, fmt.Errorf("quest reward must be positive")
	}

	if quest.ID == uuid.Nil {
		quest.ID = uuid.New()
	}
	if quest.CreatedAt.IsZero() {
		quest.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.CreateQuest(ctx, quest); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create quest: %w", err)
	}
	return quest.ID, nil
}
