package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/repository"
	"github.com/All-Khwarizmi/nature-quest/internal/reward"
	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/google/uuid"
)

// SubmissionService owns the end-to-end submission workflow. It runs after
// the HTTP handler has already acknowledged the request, so every outcome,
// failure included, ends up as the upload's terminal status rather than a
// response.
type SubmissionService struct {
	users     UserRepository
	quests    QuestRepository
	uploads   UploadRepository
	validator ValidatorI
	state     QuestStateServiceI
	gateway   RewardGateway

	locks userLocks
}

func NewSubmissionService(
	users UserRepository,
	quests QuestRepository,
	uploads UploadRepository,
	validator ValidatorI,
	state QuestStateServiceI,
	gateway RewardGateway,
) *SubmissionService {
	return &SubmissionService{
		users:     users,
		quests:    quests,
		uploads:   uploads,
		validator: validator,
		state:     state,
		gateway:   gateway,
	}
}

func (s *SubmissionService) CreateUpload(ctx context.Context, userAddress string, imageURL string, classification model.Classification, season string) (*model.Upload, error) {
	user, err := s.users.GetUserByAddress(ctx, userAddress)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	up := &model.Upload{
		ID:             uuid.New(),
		UserID:         user.ID,
		ImageURL:       imageURL,
		Classification: classification,
		Status:         model.UploadStatusPending,
		Season:         season,
	}
	if err := s.uploads.CreateUpload(ctx, up); err != nil {
		return nil, fmt.Errorf("failed to create upload: %w", err)
	}
	return up, nil
}

func (s *SubmissionService) GetUpload(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	up, err := s.uploads.GetUploadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUploadNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return up, nil
}

// ProcessSubmission decides the fate of one upload: validate, pay and update
// quest state on a match, then write the terminal status. Submissions from
// the same address are serialized so two quick uploads cannot both read the
// same quest-state snapshot; different users run fully in parallel.
func (s *SubmissionService) ProcessSubmission(ctx context.Context, userAddress string, classification model.Classification, uploadID uuid.UUID) {
	log := logger.Logger().With(
		zap.String("user_address", userAddress),
		zap.String("upload_id", uploadID.String()),
	)

	unlock := s.locks.acquire(userAddress)
	defer unlock()

	status, questID, err := s.decide(ctx, log, userAddress, classification)
	if err != nil {
		log.Error("submission processing failed", zap.Error(err))
		status = model.UploadStatusError
	}

	if err := s.uploads.FinalizeUpload(ctx, uploadID, status, questID); err != nil {
		if errors.Is(err, repository.ErrUploadFinal) {
			log.Warn("upload already finalized, keeping earlier decision",
				zap.String("late_status", string(status)))
			return
		}
		log.Error("failed to finalize upload", zap.Error(err),
			zap.String("status", string(status)))
	}
}

func (s *SubmissionService) decide(ctx context.Context, log *zap.Logger, userAddress string, classification model.Classification) (model.UploadStatus, *uuid.UUID, error) {
	user, err := s.users.GetUserByAddress(ctx, userAddress)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UploadStatusError, nil, ErrUserNotFound
		}
		return model.UploadStatusError, nil, fmt.Errorf("failed to get user: %w", err)
	}

	catalog, err := s.quests.GetQuests(ctx)
	if err != nil {
		return model.UploadStatusError, nil, fmt.Errorf("failed to load quest catalog: %w", err)
	}

	result, err := s.validator.Validate(ctx, classification, user.Quests, catalog)
	if err != nil {
		return model.UploadStatusError, nil, fmt.Errorf("validation failed: %w", err)
	}

	if !result.IsCompleted {
		log.Info("submission rejected", zap.String("explanation", result.Explanation))
		return model.UploadStatusRejected, nil, nil
	}

	quest, err := s.lookupQuest(ctx, catalog, result.QuestID)
	if err != nil {
		return model.UploadStatusError, nil, err
	}

	log.Info("quest matched",
		zap.String("quest_id", quest.ID.String()),
		zap.Int("reward", quest.Reward),
		zap.Float64("confidence", result.Confidence),
		zap.String("explanation", result.Explanation))

	// Payment and state update run concurrently; neither gates the other.
	var (
		wg       sync.WaitGroup
		receipt  *reward.Receipt
		payErr   error
		stateErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		receipt, payErr = s.gateway.Transfer(ctx, user.Address, quest.Reward)
	}()
	go func() {
		defer wg.Done()
		_, stateErr = s.state.CompleteQuest(ctx, user, quest.ID)
	}()
	wg.Wait()

	questID := quest.ID
	if stateErr != nil {
		return model.UploadStatusError, &questID, fmt.Errorf("quest state update failed: %w", stateErr)
	}

	if payErr != nil || receipt == nil || !receipt.Result {
		// The user keeps the quest credit; the upload surfaces the
		// payment failure for manual reconciliation.
		txHash := ""
		if receipt != nil {
			txHash = receipt.TransactionHash
		}
		log.Error("reward payment failed",
			zap.Error(payErr),
			zap.String("quest_id", questID.String()),
			zap.Int("amount", quest.Reward),
			zap.String("tx_hash", txHash))
		return model.UploadStatusError, &questID, nil
	}

	log.Info("reward paid",
		zap.String("quest_id", questID.String()),
		zap.String("tx_hash", receipt.TransactionHash))
	return model.UploadStatusApproved, &questID, nil
}

func (s *SubmissionService) lookupQuest(ctx context.Context, catalog []*model.Quest, id uuid.UUID) (*model.Quest, error) {
	for _, q := range catalog {
		if q.ID == id {
			return q, nil
		}
	}
	// The onboarding quest may be matched before it shows up in the
	// filtered catalog snapshot.
	quest, err := s.quests.GetQuestByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotFound) {
			return nil, fmt.Errorf("%w: matched quest %s not in store", ErrQuestNotFound, id)
		}
		return nil, fmt.Errorf("failed to get matched quest: %w", err)
	}
	return quest, nil
}

// userLocks serializes submissions per wallet address.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (l *userLocks) acquire(address string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*userLock)
	}
	e, ok := l.locks[address]
	if !ok {
		e = &userLock{}
		l.locks[address] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, address)
		}
		l.mu.Unlock()
	}
}
