package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type upload struct {
	ID                 uuid.UUID  `db:"id"`
	UserID             uuid.UUID  `db:"user_id"`
	QuestID            *uuid.UUID `db:"quest_id"`
	ImageURL           string     `db:"image_url"`
	ClassificationJSON []byte     `db:"classification_json"`
	Status             string     `db:"status"`
	Season             *string    `db:"season"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func (u *upload) toModel() (*model.Upload, error) {
	var classification model.Classification
	if len(u.ClassificationJSON) > 0 {
		if err := json.Unmarshal(u.ClassificationJSON, &classification); err != nil {
			return nil, fmt.Errorf("failed to decode classification json: %w", err)
		}
	}

	m := &model.Upload{
		ID:             u.ID,
		UserID:         u.UserID,
		QuestID:        u.QuestID,
		ImageURL:       u.ImageURL,
		Classification: classification,
		Status:         model.UploadStatus(u.Status),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if u.Season != nil {
		m.Season = *u.Season
	}
	return m, nil
}

var uploadColumns = []string{
	"id", "user_id", "quest_id", "image_url", "classification_json",
	"status", "season", "created_at", "updated_at",
}

func (r *Repository) CreateUpload(ctx context.Context, up *model.Upload) error {
	classificationJSON, err := json.Marshal(up.Classification)
	if err != nil {
		return fmt.Errorf("failed to encode classification json: %w", err)
	}

	now := time.Now().UTC()
	query, args, err := squirrel.
		Insert("uploads").
		SetMap(map[string]interface{}{
			"id":                  up.ID,
			"user_id":             up.UserID,
			"quest_id":            up.QuestID,
			"image_url":           up.ImageURL,
			"classification_json": classificationJSON,
			"status":              string(model.UploadStatusPending),
			"season":              up.Season,
			"created_at":          now,
			"updated_at":          now,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upload insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}

	return nil
}

func (r *Repository) GetUploadByID(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	query, args, err := squirrel.
		Select(uploadColumns...).
		From("uploads").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build upload select query: %w", err)
	}

	var u upload
	err = r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}

	return u.toModel()
}

// FinalizeUpload writes the terminal status (and the matched quest id, when
// there is one) in a single statement. Only a pending upload can be
// finalized; a second finalization attempt reports ErrUploadFinal so a
// re-run can never overwrite the first decision.
func (r *Repository) FinalizeUpload(ctx context.Context, id uuid.UUID, status model.UploadStatus, questID *uuid.UUID) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}

	builder := squirrel.
		Update("uploads").
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"id":     id,
			"status": string(model.UploadStatusPending),
		})
	if questID != nil {
		builder = builder.Set("quest_id", *questID)
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upload finalize query: %w", err)
	}

	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to finalize upload: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows > 0 {
			return nil
		}

		checkQuery, checkArgs, err := squirrel.
			Select("status").
			From("uploads").
			Where(squirrel.Eq{"id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build upload check query: %w", err)
		}

		var current string
		err = tx.GetContext(ctx, &current, checkQuery, checkArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUploadNotFound
			}
			return fmt.Errorf("failed to check upload status: %w", err)
		}

		return ErrUploadFinal
	})
}
