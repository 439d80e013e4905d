package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestQuestGenerator_Generate(t *testing.T) {
	tests := []struct {
		name          string
		mockSetup     func(quests *mocks.MockQuestRepository)
		expectedError error
		check         func(t *testing.T, quest *model.Quest)
	}{
		{
			name: "Generated quest stays inside the configured bounds",
			mockSetup: func(quests *mocks.MockQuestRepository) {
				quests.On("GetUsedClassifications", mock.Anything).Return([]string{}, nil)
				quests.On("CreateQuest", mock.Anything, mock.AnythingOfType("*model.Quest")).Return(nil)
			},
			check: func(t *testing.T, quest *model.Quest) {
				assert.NotEqual(t, uuid.Nil, quest.ID)
				assert.Contains(t, botanicalKeywords, quest.Classification)
				assert.Equal(t, "Take a photo of a "+quest.Classification+"!", quest.Title)

				assert.GreaterOrEqual(t, quest.Reward, rewardStep)
				assert.LessOrEqual(t, quest.Reward, rewardStep*rewardMaxSteps)
				assert.Zero(t, quest.Reward%rewardStep)

				if assert.NotNil(t, quest.MaxUsers) {
					assert.GreaterOrEqual(t, *quest.MaxUsers, maxUsersStep)
					assert.LessOrEqual(t, *quest.MaxUsers, maxUsersStep*maxUsersSteps)
				}

				if assert.NotNil(t, quest.ExpiresAt) {
					assert.True(t, quest.ExpiresAt.After(time.Now()))
					assert.True(t, quest.ExpiresAt.Before(time.Now().AddDate(0, 0, expiryMaxDays+1)))
				}
			},
		},
		{
			name: "Used classifications are excluded regardless of casing",
			mockSetup: func(quests *mocks.MockQuestRepository) {
				used := make([]string, 0, len(botanicalKeywords)-1)
				for _, kw := range botanicalKeywords[1:] {
					used = append(used, strings.ToUpper("  "+kw+" "))
				}
				quests.On("GetUsedClassifications", mock.Anything).Return(used, nil)
				quests.On("CreateQuest", mock.Anything, mock.AnythingOfType("*model.Quest")).Return(nil)
			},
			check: func(t *testing.T, quest *model.Quest) {
				assert.Equal(t, botanicalKeywords[0], quest.Classification)
			},
		},
		{
			name: "Exhausted keyword pool",
			mockSetup: func(quests *mocks.MockQuestRepository) {
				quests.On("GetUsedClassifications", mock.Anything).Return(botanicalKeywords, nil)
			},
			expectedError: ErrNoUnusedKeywords,
		},
		{
			name: "Store failure propagates",
			mockSetup: func(quests *mocks.MockQuestRepository) {
				quests.On("GetUsedClassifications", mock.Anything).Return(nil, assert.AnError)
			},
			expectedError: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quests := new(mocks.MockQuestRepository)
			tt.mockSetup(quests)

			gen := NewQuestGenerator(quests)
			quest, err := gen.Generate(context.Background())

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, quest)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, quest)
				}
			}

			quests.AssertExpectations(t)
		})
	}
}
