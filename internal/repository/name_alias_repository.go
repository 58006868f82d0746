package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
	"github.com/noah-isme/tutor-schedule-api/pkg/database"
)

// NameAliasRepository persists learned spreadsheet aliases.
type NameAliasRepository struct {
	db *sqlx.DB
}

// NewNameAliasRepository creates a repository instance.
func NewNameAliasRepository(db *sqlx.DB) *NameAliasRepository {
	return &NameAliasRepository{db: db}
}

// ListAll returns every alias, optionally restricted to one kind.
func (r *NameAliasRepository) ListAll(ctx context.Context, kind models.AliasKind) ([]models.NameAlias, error) {
	query := `SELECT id, alias, kind, entity_id, created_at, updated_at FROM name_aliases`
	var args []interface{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY kind ASC, alias ASC`
	var aliases []models.NameAlias
	if err := r.db.SelectContext(ctx, &aliases, query, args...); err != nil {
		return nil, fmt.Errorf("list name aliases: %w", err)
	}
	return aliases, nil
}

// UpsertMany writes aliases in one transaction. An existing (alias, kind)
// pair is repointed to the new entity.
func (r *NameAliasRepository) UpsertMany(ctx context.Context, aliases []models.NameAlias) error {
	if len(aliases) == 0 {
		return nil
	}

	const query = `INSERT INTO name_aliases (id, alias, kind, entity_id, created_at, updated_at)
VALUES (:id, :alias, :kind, :entity_id, :created_at, :updated_at)
ON CONFLICT (alias, kind) DO UPDATE SET entity_id = EXCLUDED.entity_id, updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range aliases {
			payload := aliases[i]
			if payload.ID == "" {
				payload.ID = uuid.NewString()
			}
			payload.CreatedAt = now
			payload.UpdatedAt = now
			if _, err := tx.NamedExecContext(ctx, query, payload); err != nil {
				return fmt.Errorf("upsert name alias %q: %w", payload.Alias, err)
			}
		}
		return nil
	})
}
