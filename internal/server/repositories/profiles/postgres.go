// Package profiles implements profile persistence on PostgreSQL.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query :=
		`INSERT INTO profiles (user_id, first_name, last_name, phone_number, avatar)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.FirstName, p.LastName, p.PhoneNumber, p.Avatar,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query :=
		`SELECT user_id, first_name, last_name, phone_number, avatar, created_at, updated_at
		 FROM profiles
		 WHERE user_id = $1
		 `

	p := &models.Profile{}
	var phone, avatar sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&p.UserID, &p.FirstName, &p.LastName, &phone, &avatar, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.PhoneNumber = nullableString(phone)
	p.Avatar = nullableString(avatar)

	return p, nil
}

// Update writes the personal fields. The avatar is changed only via UpdateAvatar.
func (r *PostgresRepository) Update(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query :=
		`UPDATE profiles
		 SET first_name = $2, last_name = $3, phone_number = $4, updated_at = NOW()
		 WHERE user_id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.UserID, p.FirstName, p.LastName, p.PhoneNumber).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	query := `UPDATE profiles SET avatar = $2, updated_at = NOW() WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, userID, avatar)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
