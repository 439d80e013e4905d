package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/model"

	"github.com/google/uuid"
)

// OnboardingExplanation is returned verbatim on every first submission.
const OnboardingExplanation = "First time submission automatically qualifies for the introductory quest."

// MatchStrategy scores how well a quest's target classification fits a
// submission. Zero means no match; higher scores are more specific. The
// default is the deterministic KeywordMatcher; a probabilistic backend can
// be swapped in without touching the validator's control flow.
type MatchStrategy interface {
	Score(target string, submission model.Classification) int
}

const (
	scoreExact       = 3
	scoreContainment = 2
	scoreDescription = 1
	scoreSentinel    = 1
)

// KeywordMatcher compares normalized strings: exact category/species
// equality beats substring containment, which beats a keyword hit in the
// free-text description. Normalization lowercases and collapses whitespace,
// so inconsistent classifier phrasing still matches.
type KeywordMatcher struct{}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func (KeywordMatcher) Score(target string, submission model.Classification) int {
	t := normalizeText(target)
	if t == "" {
		return 0
	}

	category := normalizeText(submission.Category)
	species := normalizeText(submission.Species)

	if category == t || (species != "" && species == t) {
		return scoreExact
	}
	if strings.Contains(category, t) || strings.Contains(t, category) {
		return scoreContainment
	}
	if species != "" && (strings.Contains(species, t) || strings.Contains(t, species)) {
		return scoreContainment
	}
	if strings.Contains(normalizeText(submission.Description), t) {
		return scoreDescription
	}
	return 0
}

type Validator struct {
	match        MatchStrategy
	firstQuestID uuid.UUID
	now          func() time.Time
}

func NewValidator(match MatchStrategy, firstQuestID uuid.UUID) *Validator {
	return &Validator{
		match:        match,
		firstQuestID: firstQuestID,
		now:          time.Now,
	}
}

// Validate decides which single quest, if any, the submission completes.
//
// A user with no completed quests short-circuits to the onboarding quest
// before any matching happens. Otherwise quests already completed, expired
// or at capacity are never candidates, and ties between candidates break on
// match specificity, then creation time, then id, so the outcome does not
// depend on catalog order.
func (v *Validator) Validate(_ context.Context, submission model.Classification, state model.QuestState, catalog []*model.Quest) (*model.ValidationResult, error) {
	if err := submission.Validate(); err != nil {
		return nil, err
	}

	if len(state.Completed) == 0 {
		return &model.ValidationResult{
			IsCompleted: true,
			QuestID:     v.firstQuestID,
			Confidence:  1.0,
			Explanation: OnboardingExplanation,
		}, nil
	}

	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}

	now := v.now().UTC()

	var best *model.Quest
	var bestScore int
	for _, q := range catalog {
		if state.HasCompleted(q.ID) {
			continue
		}
		if q.Expired(now) || q.AtCapacity() {
			continue
		}

		var score int
		if q.MatchesAny() {
			if submission.IsNature {
				score = scoreSentinel
			}
		} else if submission.IsNature {
			score = v.match.Score(q.Classification, submission)
		}
		if score == 0 {
			continue
		}

		if best == nil || score > bestScore ||
			(score == bestScore && preferQuest(q, best)) {
			best = q
			bestScore = score
		}
	}

	if best == nil {
		return &model.ValidationResult{
			IsCompleted: false,
			QuestID:     uuid.Nil,
			Confidence:  0,
			Explanation: fmt.Sprintf("no pending quest matches classification %q (species %q)", submission.Category, submission.Species),
		}, nil
	}

	return &model.ValidationResult{
		IsCompleted: true,
		QuestID:     best.ID,
		Confidence:  submission.Confidence,
		Explanation: fmt.Sprintf("submission %q matches quest %q", submission.Category, best.Title),
	}, nil
}

// preferQuest breaks score ties: earliest created wins, then the lowest id.
func preferQuest(a, b *model.Quest) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
