package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/identity"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/pkg/idx"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
)

type UserService struct {
	Store store.Store
	Now   func() time.Time
}

type UpdateProfileInput struct {
	Name  *string `json:"name" validate:"omitnil,max=120"`
	Phone *string `json:"phone" validate:"omitnil,eq=|e164"`
}

// Get returns the user record behind a session subject.
func (s *UserService) Get(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, ErrUnauthenticated
	}
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, fmt.Errorf("%w: user", ErrNotFound)
	}
	return u, err
}

// EnsureUser records an authenticated identity, creating the local user on
// first login.
func (s *UserService) EnsureUser(ctx context.Context, p identity.Profile) (domain.User, error) {
	log := slogx.FromContext(ctx)

	now := clock(s.Now)
	u, err := s.Store.Users().UpsertUserByAccountRef(ctx, domain.User{
		ID:         idx.NewAt(now).String(),
		AccountRef: p.AccountRef,
		Name:       p.Name(),
		Email:      strings.ToLower(strings.TrimSpace(p.Email)),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		log.Error("failed to upsert user",
			slog.String("account_ref", p.AccountRef),
			slog.Any("error", err),
		)
		return domain.User{}, err
	}

	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (domain.User, error) {
	trim(in.Name, in.Phone)
	if err := validx.Struct(in); err != nil {
		return domain.User{}, err
	}

	u, err := s.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	setIf(&u.Name, in.Name)
	setIf(&u.Phone, in.Phone)
	u.UpdatedAt = clock(s.Now)

	if err := s.Store.Users().UpdateUserProfile(ctx, u.ID, u.Name, u.Phone, u.UpdatedAt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("%w: user", ErrNotFound)
		}
		return domain.User{}, err
	}
	return u, nil
}
