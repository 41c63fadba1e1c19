package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/IlyasAtabaev731/wallet/internal/storage"
)

const userColumns = "id, name, email, balance, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		user               models.User
		createdAt, updated time.Time
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Balance, &createdAt, &updated); err != nil {
		return nil, err
	}
	user.CreatedAt = formatTime(createdAt)
	user.UpdatedAt = formatTime(updated)
	return &user, nil
}

// UpsertUser creates the user or refreshes name and email of an existing one.
// Empty incoming values keep what is stored.
func (s *Storage) UpsertUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	const op = "storage.postgres.UpsertUser"

	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO users (id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
			updated_at = now()
		RETURNING `+userColumns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	user, err := scanUser(stmt.QueryRowContext(ctx, req.UserID, req.Name, req.Email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgres.GetUser"

	user, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.GetUserByEmail"

	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1) ORDER BY created_at LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ListUsers returns a page of users ordered by name and the total count.
func (s *Storage) ListUsers(ctx context.Context, offset, limit int) ([]models.User, int, error) {
	const op = "storage.postgres.ListUsers"

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY name, id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer s.closeRows(rows)

	users := make([]models.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return users, total, nil
}

// UserIDs lists every known user id. Used to warm the sync marker cache.
func (s *Storage) UserIDs(ctx context.Context) ([]string, error) {
	const op = "storage.postgres.UserIDs"

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM users")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer s.closeRows(rows)

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (s *Storage) SaveCredential(ctx context.Context, cred models.Credential) error {
	const op = "storage.postgres.SaveCredential"

	stmt, err := s.db.PrepareContext(ctx,
		"INSERT INTO credentials (email, user_id, name, password_hash) VALUES ($1, $2, $3, $4)")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, cred.Email, cred.UserID, cred.Name, cred.PasswordHash)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetCredential(ctx context.Context, email string) (*models.Credential, error) {
	const op = "storage.postgres.GetCredential"

	var cred models.Credential
	err := s.db.QueryRowContext(ctx,
		"SELECT email, user_id, name, password_hash FROM credentials WHERE email = $1", email,
	).Scan(&cred.Email, &cred.UserID, &cred.Name, &cred.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cred, nil
}
