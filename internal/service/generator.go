package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/google/uuid"
)

// botanicalKeywords is the immutable pool of target classifications for
// generated quests. Already-used targets are read back from the quest store
// each run instead of being removed from a shared slice.
var botanicalKeywords = []string{
	"rapeseed",
	"daisy",
	"yellow lady's slipper",
	"corn",
	"acorn",
	"rose hip",
	"buckeye",
	"horse chestnut",
	"cabbage",
	"broccoli",
	"cauliflower",
	"zucchini",
	"spaghetti squash",
	"acorn squash",
	"butternut squash",
	"cucumber",
	"artichoke",
	"bell pepper",
	"cardoon",
	"mushroom",
	"granny smith",
	"strawberry",
	"orange",
	"lemon",
	"fig",
	"pineapple",
	"banana",
	"jackfruit",
	"custard apple",
	"pomegranate",
	"hay",
}

const (
	rewardStep     = 5
	rewardMaxSteps = 20
	maxUsersStep   = 5
	maxUsersSteps  = 10
	expiryMaxDays  = 30
)

// QuestGenerator creates new quests from the keyword pool, never reusing a
// classification already present in the catalog.
type QuestGenerator struct {
	quests QuestRepository
}

func NewQuestGenerator(quests QuestRepository) *QuestGenerator {
	return &QuestGenerator{quests: quests}
}

func (g *QuestGenerator) Generate(ctx context.Context) (*model.Quest, error) {
	used, err := g.quests.GetUsedClassifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load used classifications: %w", err)
	}

	usedSet := make(map[string]struct{}, len(used))
	for _, c := range used {
		usedSet[normalizeText(c)] = struct{}{}
	}

	candidates := make([]string, 0, len(botanicalKeywords))
	for _, kw := range botanicalKeywords {
		if _, ok := usedSet[normalizeText(kw)]; !ok {
			candidates = append(candidates, kw)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoUnusedKeywords
	}

	target := candidates[rand.Intn(len(candidates))]
	now := time.Now().UTC()
	expiry := now.AddDate(0, 0, rand.Intn(expiryMaxDays)+1)
	maxUsers := maxUsersStep * (rand.Intn(maxUsersSteps) + 1)

	quest := &model.Quest{
		ID:             uuid.New(),
		Title:          fmt.Sprintf("Take a photo of a %s!", target),
		Classification: target,
		Description:    fmt.Sprintf("Head outside and find a %s. Snap a clear photo of it to earn your reward!", target),
		Reward:         rewardStep * (rand.Intn(rewardMaxSteps) + 1),
		MaxUsers:       &maxUsers,
		CreatedAt:      now,
		ExpiresAt:      &expiry,
	}

	if err := g.quests.CreateQuest(ctx, quest); err != nil {
		return nil, fmt.Errorf("failed to persist generated quest: %w", err)
	}

	logger.Logger().Info("quest generated",
		zap.String("quest_id", quest.ID.String()),
		zap.String("classification", quest.Classification),
		zap.Int("reward", quest.Reward))

	return quest, nil
}
