package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"pricewatch/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// ByID returns nil, nil for an unknown user.
func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT id,username,email,password_hash FROM users WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("users.by_id", err)
	}
	return &u, nil
}

// Create stores a user with a bcrypt hash of password. An existing id is left untouched.
func (r *UserRepo) Create(ctx context.Context, id, username, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
	  INSERT INTO users(id, username, email, password_hash, created_at)
	  VALUES(?, ?, LOWER(?), ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(id) DO NOTHING
	`, id, username, strings.TrimSpace(email), string(hash))
	return classify("users.create", err)
}
