package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
)

// DraftApplicationRepository stores draft hacker applications. The free-form
// fields live in a JSON column.
type DraftApplicationRepository struct {
	db DBTX
}

func NewDraftApplicationRepository(db DBTX) *DraftApplicationRepository {
	return &DraftApplicationRepository{db: db}
}

func (r *DraftApplicationRepository) CreateDraft(ctx context.Context, userID uint64, fields map[string]string) (*entity.DraftApplication, error) {
	now := time.Now()
	draft := &entity.DraftApplication{
		UserID:    userID,
		Data:      fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Create(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (r *DraftApplicationRepository) Create(ctx context.Context, draft *entity.DraftApplication) error {
	data, err := json.Marshal(draft.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO draft_applications (user_id, data_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		draft.UserID,
		string(data),
		draft.CreatedAt,
		draft.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	draft.ID = uint64(id)
	return nil
}

func (r *DraftApplicationRepository) FindByUserID(ctx context.Context, userID uint64) (*entity.DraftApplication, error) {
	query := `
		SELECT id, user_id, data_json, created_at, updated_at
		FROM draft_applications WHERE user_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	draft := &entity.DraftApplication{}
	var dataJSON string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&draft.ID,
		&draft.UserID,
		&dataJSON,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err = json.Unmarshal([]byte(dataJSON), &draft.Data); err != nil {
		return nil, err
	}
	return draft, nil
}
