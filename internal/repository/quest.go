package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type quest struct {
	ID             uuid.UUID  `db:"id"`
	Title          string     `db:"title"`
	Classification string     `db:"classification"`
	Description    string     `db:"description"`
	Reward         int        `db:"reward"`
	UserCount      int        `db:"user_count"`
	MaxUsers       *int       `db:"max_users"`
	CreatedAt      time.Time  `db:"created_at"`
	ExpiresAt      *time.Time `db:"expires_at"`
}

func (q *quest) toModel() *model.Quest {
	return &model.Quest{
		ID:             q.ID,
		Title:          q.Title,
		Classification: q.Classification,
		Description:    q.Description,
		Reward:         q.Reward,
		UserCount:      q.UserCount,
		MaxUsers:       q.MaxUsers,
		CreatedAt:      q.CreatedAt,
		ExpiresAt:      q.ExpiresAt,
	}
}

var questColumns = []string{
	"id", "title", "classification", "description", "reward",
	"user_count", "max_users", "created_at", "expires_at",
}

func (r *Repository) GetQuests(ctx context.Context) ([]*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests").
		OrderBy("created_at", "id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quests select query: %w", err)
	}

	var dbQuests []*quest
	err = r.db.SelectContext(ctx, &dbQuests, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*model.Quest{}, nil
		}
		return nil, fmt.Errorf("failed to get quests: %w", err)
	}

	quests := make([]*model.Quest, len(dbQuests))
	for i, q := range dbQuests {
		quests[i] = q.toModel()
	}
	return quests, nil
}

func (r *Repository) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quest select query: %w", err)
	}

	var q quest
	err = r.db.GetContext(ctx, &q, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}

	return q.toModel(), nil
}

func (r *Repository) CreateQuest(ctx context.Context, q *model.Quest) error {
	query, args, err := squirrel.
		Insert("quests").
		SetMap(map[string]interface{}{
			"id":             q.ID,
			"title":          q.Title,
			"classification": q.Classification,
			"description":    q.Description,
			"reward":         q.Reward,
			"user_count":     q.UserCount,
			"max_users":      q.MaxUsers,
			"created_at":     q.CreatedAt,
			"expires_at":     q.ExpiresAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert quest: %w", err)
	}

	return nil
}

// IncrementQuestUserCount bumps the completion counter, refusing to pass the
// capacity ceiling when one is set.
func (r *Repository) IncrementQuestUserCount(ctx context.Context, id uuid.UUID) error {
	query, args, err := squirrel.
		Update("quests").
		Set("user_count", squirrel.Expr("user_count + 1")).
		Where(squirrel.And{
			squirrel.Eq{"id": id},
			squirrel.Expr("(max_users IS NULL OR user_count < max_users)"),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest counter update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to increment quest counter: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		exists, err := r.questExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrQuestNotFound
		}
		return ErrQuestFull
	}

	return nil
}

// GetUsedClassifications returns every target classification already present
// in the catalog, for the generator to exclude.
func (r *Repository) GetUsedClassifications(ctx context.Context) ([]string, error) {
	query, args, err := squirrel.
		Select("classification").
		From("quests").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build classifications select query: %w", err)
	}

	var used pq.StringArray
	err = r.db.SelectContext(ctx, &used, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get used classifications: %w", err)
	}

	return used, nil
}

func (r *Repository) questExists(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("quests").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build quest exists query: %w", err)
	}

	var one int
	err = r.db.GetContext(ctx, &one, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check quest: %w", err)
	}
	return true, nil
}
