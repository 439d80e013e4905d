package service

import (
	"context"
	"testing"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/repository"
	"github.com/All-Khwarizmi/nature-quest/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_GetOrCreateUser(t *testing.T) {
	tests := []struct {
		name          string
		mockSetup     func(repo *mocks.MockUserRepository)
		expectedError bool
		check         func(t *testing.T, user *model.User)
	}{
		{
			name: "Existing user is returned as is",
			mockSetup: func(repo *mocks.MockUserRepository) {
				repo.On("GetUserByAddress", mock.Anything, testAddress).Return(testUser(), nil)
			},
			check: func(t *testing.T, user *model.User) {
				assert.Equal(t, testAddress, user.Address)
				assert.NotEmpty(t, user.Quests.Completed)
			},
		},
		{
			name: "Unknown address creates a fresh user with empty quest state",
			mockSetup: func(repo *mocks.MockUserRepository) {
				repo.On("GetUserByAddress", mock.Anything, testAddress).Return(nil, repository.ErrNotFound)
				repo.On("CreateUser", mock.Anything, testAddress).Return(&model.User{
					ID:      uuid.New(),
					Address: testAddress,
					Version: 1,
				}, nil)
			},
			check: func(t *testing.T, user *model.User) {
				assert.Empty(t, user.Quests.Pending)
				assert.Empty(t, user.Quests.Completed)
			},
		},
		{
			name: "Losing the insert race falls back to the winner's row",
			mockSetup: func(repo *mocks.MockUserRepository) {
				repo.On("GetUserByAddress", mock.Anything, testAddress).Return(nil, repository.ErrNotFound).Once()
				repo.On("CreateUser", mock.Anything, testAddress).Return(nil, repository.ErrAlreadyExists)
				repo.On("GetUserByAddress", mock.Anything, testAddress).Return(testUser(), nil).Once()
			},
			check: func(t *testing.T, user *model.User) {
				assert.Equal(t, testAddress, user.Address)
			},
		},
		{
			name: "Lookup failure is not masked by creation",
			mockSetup: func(repo *mocks.MockUserRepository) {
				repo.On("GetUserByAddress", mock.Anything, testAddress).Return(nil, assert.AnError)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockUserRepository)
			tt.mockSetup(repo)

			svc := NewUserService(repo)
			user, err := svc.GetOrCreateUser(context.Background(), testAddress)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, user)
				repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, user)
				}
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_GetUserByAddress(t *testing.T) {
	repo := new(mocks.MockUserRepository)
	repo.On("GetUserByAddress", mock.Anything, testAddress).Return(nil, repository.ErrNotFound)

	svc := NewUserService(repo)
	user, err := svc.GetUserByAddress(context.Background(), testAddress)

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, user)
	repo.AssertExpectations(t)
}
