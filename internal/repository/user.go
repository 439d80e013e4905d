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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type user struct {
	ID                   uuid.UUID      `db:"id"`
	Address              string         `db:"address"`
	PendingQuests        pq.StringArray `db:"pending_quests"`
	CompletedQuests      pq.StringArray `db:"completed_quests"`
	Version              int            `db:"version"`
	TotalQuestsCompleted int            `db:"total_quests_completed"`
	LastQuestCompletedAt *time.Time     `db:"last_quest_completed_at"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (u *user) toModel() (*model.User, error) {
	pending, err := parseQuestIDs(u.PendingQuests)
	if err != nil {
		return nil, fmt.Errorf("invalid pending quest id: %w", err)
	}
	completed, err := parseQuestIDs(u.CompletedQuests)
	if err != nil {
		return nil, fmt.Errorf("invalid completed quest id: %w", err)
	}

	return &model.User{
		ID:                   u.ID,
		Address:              u.Address,
		Quests:               model.QuestState{Pending: pending, Completed: completed},
		Version:              u.Version,
		TotalQuestsCompleted: u.TotalQuestsCompleted,
		LastQuestCompletedAt: u.LastQuestCompletedAt,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}, nil
}

func parseQuestIDs(raw pq.StringArray) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func formatQuestIDs(ids []uuid.UUID) pq.StringArray {
	raw := make(pq.StringArray, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	return raw
}

func (r *Repository) CreateUser(ctx context.Context, address string) (*model.User, error) {
	now := time.Now().UTC()
	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"id":               uuid.New(),
			"address":          address,
			"pending_quests":   pq.StringArray{},
			"completed_quests": pq.StringArray{},
			"version":          0,
			"created_at":       now,
			"updated_at":       now,
		}).
		Suffix("RETURNING id, address, pending_quests, completed_quests, version, total_quests_completed, last_quest_completed_at, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user insert query: %w", err)
	}

	var u user
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		var pgErr *pgconn.PgError
		// 23505 is the postgres unique_violation code.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return u.toModel()
}

func (r *Repository) GetUserByAddress(ctx context.Context, address string) (*model.User, error) {
	query, args, err := squirrel.
		Select("id", "address", "pending_quests", "completed_quests", "version",
			"total_quests_completed", "last_quest_completed_at", "created_at", "updated_at").
		From("users").
		Where(squirrel.Eq{"address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user select query: %w", err)
	}

	var u user
	err = r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u.toModel()
}

// UpdateUserQuestState persists a new pending/completed snapshot guarded by
// the version the caller read. Zero rows affected means another writer got
// there first and the caller must re-read and retry.
func (r *Repository) UpdateUserQuestState(ctx context.Context, address string, state model.QuestState, version int) error {
	now := time.Now().UTC()
	query, args, err := squirrel.
		Update("users").
		Set("pending_quests", formatQuestIDs(state.Pending)).
		Set("completed_quests", formatQuestIDs(state.Completed)).
		Set("version", version+1).
		Set("total_quests_completed", len(state.Completed)).
		Set("last_quest_completed_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{
			"address": address,
			"version": version,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest state update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quest state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		exists, err := r.userExists(ctx, address)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStateConflict
	}

	return nil
}

func (r *Repository) userExists(ctx context.Context, address string) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("users").
		Where(squirrel.Eq{"address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build user exists query: %w", err)
	}

	var one int
	err = r.db.GetContext(ctx, &one, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return true, nil
}
