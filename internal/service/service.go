package service

import (
	"context"
	"errors"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/reward"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrQuestNotFound    = errors.New("quest not found")
	ErrUploadNotFound   = errors.New("upload not found")
	ErrEmptyCatalog     = errors.New("quest catalog is empty")
	ErrStateConflict    = errors.New("quest state update lost the race too many times")
	ErrNoUnusedKeywords = errors.New("no unused classification keywords left")
)

type UserRepository interface {
	CreateUser(ctx context.Context, address string) (*model.User, error)
	GetUserByAddress(ctx context.Context, address string) (*model.User, error)
	UpdateUserQuestState(ctx context.Context, address string, state model.QuestState, version int) error
}

type QuestRepository interface {
	GetQuests(ctx context.Context) ([]*model.Quest, error)
	GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error)
	CreateQuest(ctx context.Context, quest *model.Quest) error
	IncrementQuestUserCount(ctx context.Context, id uuid.UUID) error
	GetUsedClassifications(ctx context.Context) ([]string, error)
}

type UploadRepository interface {
	CreateUpload(ctx context.Context, upload *model.Upload) error
	GetUploadByID(ctx context.Context, id uuid.UUID) (*model.Upload, error)
	FinalizeUpload(ctx context.Context, id uuid.UUID, status model.UploadStatus, questID *uuid.UUID) error
}

type ValidatorI interface {
	Validate(ctx context.Context, submission model.Classification, state model.QuestState, catalog []*model.Quest) (*model.ValidationResult, error)
}

type QuestStateServiceI interface {
	CompleteQuest(ctx context.Context, user *model.User, questID uuid.UUID) (*model.QuestState, error)
}

type SubmissionServiceI interface {
	ProcessSubmission(ctx context.Context, userAddress string, classification model.Classification, uploadID uuid.UUID)
	CreateUpload(ctx context.Context, userAddress string, imageURL string, classification model.Classification, season string) (*model.Upload, error)
	GetUpload(ctx context.Context, id uuid.UUID) (*model.Upload, error)
}

type UserServiceI interface {
	GetOrCreateUser(ctx context.Context, address string) (*model.User, error)
	GetUserByAddress(ctx context.Context, address string) (*model.User, error)
}

type QuestServiceI interface {
	GetQuests(ctx context.Context) ([]*model.Quest, error)
	GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error)
	CreateQuest(ctx context.Context, quest *model.Quest) (uuid.UUID, error)
}

type QuestGeneratorI interface {
	Generate(ctx context.Context) (*model.Quest, error)
}

// RewardGateway re-exports the payment contract the orchestrator depends on.
type RewardGateway = reward.Gateway
