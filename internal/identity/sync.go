package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/IlyasAtabaev731/wallet/internal/storage"
)

const DefaultSyncTTL = 30 * 24 * time.Hour

type UserStore interface {
	UpsertUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Syncer makes sure every authenticated subject has a local user record.
type Syncer struct {
	users   UserStore
	markers MarkerStore
	logger  *slog.Logger
	ttl     time.Duration
}

func NewSyncer(users UserStore, markers MarkerStore, logger *slog.Logger, ttl time.Duration) *Syncer {
	if ttl <= 0 {
		ttl = DefaultSyncTTL
	}
	return &Syncer{users: users, markers: markers, logger: logger, ttl: ttl}
}

// Sync returns the local user for id. A marked subject is loaded; an
// unmarked or vanished one is upserted and marked again. Identities without
// an email, such as those read from access tokens, never overwrite an
// existing record: it is loaded and marked instead.
func (s *Syncer) Sync(ctx context.Context, id Identity) (*models.User, error) {
	const op = "identity.Syncer.Sync"

	if id.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	marked, err := s.markers.IsMarked(ctx, id.Subject)
	if err != nil {
		s.logger.Warn("Failed to read sync marker", slog.String("user", id.Subject), "error", err)
	}

	if marked || id.Email == "" {
		user, err := s.users.GetUser(ctx, id.Subject)
		if err == nil {
			if !marked {
				s.mark(ctx, id.Subject)
			}
			return user, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if marked {
			s.logger.Warn("Marked user missing, syncing again", slog.String("user", id.Subject))
		}
	}

	return s.Create(ctx, models.CreateUserRequest{UserID: id.Subject, Name: id.Name, Email: id.Email})
}

// Create upserts the user record and marks the subject as synced.
func (s *Syncer) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	const op = "identity.Syncer.Create"

	if req.Name == "" {
		req.Name = req.Email
	}

	user, err := s.users.UpsertUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%s: user stored without id", op)
	}

	s.mark(ctx, req.UserID)

	s.logger.Info("User synced", slog.String("user", user.ID))
	return user, nil
}

func (s *Syncer) mark(ctx context.Context, subject string) {
	if err := s.markers.Mark(ctx, subject, s.ttl); err != nil {
		s.logger.Warn("Failed to store sync marker", slog.String("user", subject), "error", err)
	}
}

// Forget drops the marker so the next sign-in syncs the record again.
func (s *Syncer) Forget(ctx context.Context, subject string) {
	if err := s.markers.Unmark(ctx, subject); err != nil {
		s.logger.Warn("Failed to clear sync marker", slog.String("user", subject), "error", err)
	}
}
