package service

import (
	"context"
	"testing"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var (
	onboardingID = uuid.MustParse("8e03aa6d-baf1-413e-8243-3487c64ee95d")
	questTreeID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	questRoseID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	questAnyID   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }

func testQuest(id uuid.UUID, classification string, createdAt time.Time) *model.Quest {
	return &model.Quest{
		ID:             id,
		Title:          "Take a photo of a " + classification + "!",
		Classification: classification,
		Reward:         25,
		CreatedAt:      createdAt,
	}
}

func natureSubmission(category string) model.Classification {
	return model.Classification{
		Category:    category,
		Confidence:  0.9,
		Description: "a " + category + " in daylight",
		IsNature:    true,
	}
}

func TestValidator_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := now.Add(-72 * time.Hour)

	validator := NewValidator(KeywordMatcher{}, onboardingID)
	validator.now = func() time.Time { return now }

	tests := []struct {
		name          string
		submission    model.Classification
		state         model.QuestState
		catalog       []*model.Quest
		expectedError error
		check         func(*testing.T, *model.ValidationResult)
	}{
		{
			name:       "First submission always completes the onboarding quest",
			submission: natureSubmission("tree"),
			state:      model.QuestState{},
			catalog: []*model.Quest{
				testQuest(questRoseID, "flower", base),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.True(t, result.IsCompleted)
				assert.Equal(t, onboardingID, result.QuestID)
				assert.Equal(t, 1.0, result.Confidence)
				assert.Equal(t, OnboardingExplanation, result.Explanation)
			},
		},
		{
			name:       "Onboarding ignores classification content entirely",
			submission: model.Classification{Category: "NOT_NATURE", Confidence: 0.1, Description: "a parking lot", IsNature: false},
			state:      model.QuestState{},
			catalog:    []*model.Quest{testQuest(questTreeID, "tree", base)},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.True(t, result.IsCompleted)
				assert.Equal(t, onboardingID, result.QuestID)
			},
		},
		{
			name:       "Pending quest matches by category",
			submission: natureSubmission("tree"),
			state: model.QuestState{
				Pending:   []uuid.UUID{questTreeID},
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				testQuest(questTreeID, "tree", base),
				testQuest(questRoseID, "rose hip", base.Add(time.Hour)),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.True(t, result.IsCompleted)
				assert.Equal(t, questTreeID, result.QuestID)
				assert.Equal(t, 0.9, result.Confidence)
			},
		},
		{
			name:       "No candidate matches",
			submission: natureSubmission("mushroom"),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				testQuest(questTreeID, "tree", base),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.False(t, result.IsCompleted)
				assert.Equal(t, uuid.Nil, result.QuestID)
				assert.Equal(t, 0.0, result.Confidence)
				assert.NotEmpty(t, result.Explanation)
			},
		},
		{
			name:       "Completed quest is never matched again",
			submission: natureSubmission("tree"),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID, questTreeID},
			},
			catalog: []*model.Quest{
				testQuest(questTreeID, "tree", base),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.False(t, result.IsCompleted)
			},
		},
		{
			name:       "Quest at capacity is not selectable",
			submission: natureSubmission("tree"),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				func() *model.Quest {
					q := testQuest(questTreeID, "tree", base)
					q.MaxUsers = intPtr(5)
					q.UserCount = 5
					return q
				}(),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.False(t, result.IsCompleted)
			},
		},
		{
			name:       "Expired quest is not selectable",
			submission: natureSubmission("tree"),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				func() *model.Quest {
					q := testQuest(questTreeID, "tree", base)
					q.ExpiresAt = timePtr(now.Add(-time.Minute))
					return q
				}(),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.False(t, result.IsCompleted)
			},
		},
		{
			name:       "Sentinel quest matches any nature submission",
			submission: natureSubmission("something unheard of"),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				testQuest(questAnyID, model.MatchAnyClassification, base),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.True(t, result.IsCompleted)
				assert.Equal(t, questAnyID, result.QuestID)
			},
		},
		{
			name: "Non-nature submission never matches, not even the sentinel",
			submission: model.Classification{
				Category:    "car",
				Confidence:  0.95,
				Description: "a red car",
				IsNature:    false,
			},
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				testQuest(questAnyID, model.MatchAnyClassification, base),
				testQuest(questTreeID, "car", base),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.False(t, result.IsCompleted)
			},
		},
		{
			name:       "Specific match beats sentinel match",
			submission: natureSubmission("tree"),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				testQuest(questAnyID, model.MatchAnyClassification, base),
				testQuest(questTreeID, "tree", base.Add(time.Hour)),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.True(t, result.IsCompleted)
				assert.Equal(t, questTreeID, result.QuestID)
			},
		},
		{
			name:       "Equal scores break on earliest creation time",
			submission: natureSubmission("tree"),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				testQuest(questRoseID, "tree", base.Add(time.Hour)),
				testQuest(questTreeID, "tree", base),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.True(t, result.IsCompleted)
				assert.Equal(t, questTreeID, result.QuestID)
			},
		},
		{
			name:       "Equal creation times break on lowest id",
			submission: natureSubmission("tree"),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				testQuest(questRoseID, "tree", base),
				testQuest(questTreeID, "tree", base),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.True(t, result.IsCompleted)
				assert.Equal(t, questTreeID, result.QuestID)
			},
		},
		{
			name:       "Matching is case and whitespace insensitive",
			submission: natureSubmission("  Rose   Hip "),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog: []*model.Quest{
				testQuest(questRoseID, "rose hip", base),
			},
			check: func(t *testing.T, result *model.ValidationResult) {
				assert.True(t, result.IsCompleted)
				assert.Equal(t, questRoseID, result.QuestID)
			},
		},
		{
			name: "Malformed classification is a hard error",
			submission: model.Classification{
				Category:   "",
				Confidence: 0.5,
			},
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog:       []*model.Quest{testQuest(questTreeID, "tree", base)},
			expectedError: model.ErrMalformedClassification,
		},
		{
			name:       "Empty catalog is a hard error, not a rejection",
			submission: natureSubmission("tree"),
			state: model.QuestState{
				Completed: []uuid.UUID{onboardingID},
			},
			catalog:       []*model.Quest{},
			expectedError: ErrEmptyCatalog,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.Validate(context.Background(), tt.submission, tt.state, tt.catalog)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, result)

			if tt.check != nil {
				tt.check(t, result)
			}
		})
	}
}

func TestValidator_CatalogOrderIndependence(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := now.Add(-72 * time.Hour)

	validator := NewValidator(KeywordMatcher{}, onboardingID)
	validator.now = func() time.Time { return now }

	state := model.QuestState{Completed: []uuid.UUID{onboardingID}}
	submission := natureSubmission("tree")

	catalog := []*model.Quest{
		testQuest(questAnyID, model.MatchAnyClassification, base),
		testQuest(questTreeID, "tree", base),
		testQuest(questRoseID, "tree", base.Add(time.Hour)),
	}
	reversed := []*model.Quest{catalog[2], catalog[1], catalog[0]}

	forward, err := validator.Validate(context.Background(), submission, state, catalog)
	assert.NoError(t, err)
	backward, err := validator.Validate(context.Background(), submission, state, reversed)
	assert.NoError(t, err)

	assert.Equal(t, forward.QuestID, backward.QuestID)
	assert.Equal(t, questTreeID, forward.QuestID)
}

func TestKeywordMatcher_Score(t *testing.T) {
	matcher := KeywordMatcher{}

	tests := []struct {
		name       string
		target     string
		submission model.Classification
		expected   int
	}{
		{
			name:       "Exact category match",
			target:     "tree",
			submission: model.Classification{Category: "tree", IsNature: true},
			expected:   scoreExact,
		},
		{
			name:       "Exact species match",
			target:     "cypripedium calceolus",
			submission: model.Classification{Category: "flower", Species: "Cypripedium calceolus", IsNature: true},
			expected:   scoreExact,
		},
		{
			name:       "Category containment",
			target:     "squash",
			submission: model.Classification{Category: "butternut squash", IsNature: true},
			expected:   scoreContainment,
		},
		{
			name:       "Target containment",
			target:     "granny smith",
			submission: model.Classification{Category: "granny", IsNature: true},
			expected:   scoreContainment,
		},
		{
			name:       "Description keyword hit",
			target:     "mushroom",
			submission: model.Classification{Category: "fungus", Description: "a small brown mushroom on a log", IsNature: true},
			expected:   scoreDescription,
		},
		{
			name:       "No overlap at all",
			target:     "fig",
			submission: model.Classification{Category: "ocean", Description: "waves on a beach", IsNature: true},
			expected:   0,
		},
		{
			name:       "Empty target never matches",
			target:     "",
			submission: model.Classification{Category: "tree", IsNature: true},
			expected:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matcher.Score(tt.target, tt.submission))
		})
	}
}
