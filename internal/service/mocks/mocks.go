package mocks

import (
	"context"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/reward"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, address string) (*model.User, error) {
	args := m.Called(ctx, address)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetUserByAddress(ctx context.Context, address string) (*model.User, error) {
	args := m.Called(ctx, address)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdateUserQuestState(ctx context.Context, address string, state model.QuestState, version int) error {
	args := m.Called(ctx, address, state, version)
	return args.Error(0)
}

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) GetQuests(ctx context.Context) ([]*model.Quest, error) {
	args := m.Called(ctx)
	if q := args.Get(0); q != nil {
		return q.([]*model.Quest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestRepository) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, id)
	if q := args.Get(0); q != nil {
		return q.(*model.Quest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestRepository) CreateQuest(ctx context.Context, quest *model.Quest) error {
	args := m.Called(ctx, quest)
	return args.Error(0)
}

func (m *MockQuestRepository) IncrementQuestUserCount(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestRepository) GetUsedClassifications(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if c := args.Get(0); c != nil {
		return c.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUploadRepository struct {
	mock.Mock
}

func (m *MockUploadRepository) CreateUpload(ctx context.Context, upload *model.Upload) error {
	args := m.Called(ctx, upload)
	return args.Error(0)
}

func (m *MockUploadRepository) GetUploadByID(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*model.Upload), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUploadRepository) FinalizeUpload(ctx context.Context, id uuid.UUID, status model.UploadStatus, questID *uuid.UUID) error {
	args := m.Called(ctx, id, status, questID)
	return args.Error(0)
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, submission model.Classification, state model.QuestState, catalog []*model.Quest) (*model.ValidationResult, error) {
	args := m.Called(ctx, submission, state, catalog)
	if r := args.Get(0); r != nil {
		return r.(*model.ValidationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockQuestStateService struct {
	mock.Mock
}

func (m *MockQuestStateService) CompleteQuest(ctx context.Context, user *model.User, questID uuid.UUID) (*model.QuestState, error) {
	args := m.Called(ctx, user, questID)
	if s := args.Get(0); s != nil {
		return s.(*model.QuestState), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockRewardGateway struct {
	mock.Mock
}

func (m *MockRewardGateway) Transfer(ctx context.Context, recipient string, amount int) (*reward.Receipt, error) {
	args := m.Called(ctx, recipient, amount)
	if r := args.Get(0); r != nil {
		return r.(*reward.Receipt), args.Error(1)
	}
	return nil, args.Error(1)
}
