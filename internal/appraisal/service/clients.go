package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/pkg/idx"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
)

// Page bounds list endpoints. Zero Limit means the store default.
type Page struct {
	Limit  int `json:"limit" validate:"gte=0,lte=200"`
	Offset int `json:"offset" validate:"gte=0"`
}

func (p Page) store() store.Page { return store.Page{Limit: p.Limit, Offset: p.Offset} }

type ClientService struct {
	Store store.Store
	Now   func() time.Time
}

type CreateClientInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Phone   string `json:"phone" validate:"max=40"`
	Company string `json:"company" validate:"max=200"`
	Address string `json:"address" validate:"max=500"`
}

type UpdateClientInput struct {
	Name    *string `json:"name" validate:"omitnil,min=1,max=200"`
	Email   *string `json:"email" validate:"omitnil,eq=|email,max=254"`
	Phone   *string `json:"phone" validate:"omitnil,max=40"`
	Company *string `json:"company" validate:"omitnil,max=200"`
	Address *string `json:"address" validate:"omitnil,max=500"`
}

func (s *ClientService) access() *Access { return &Access{Store: s.Store} }

func (s *ClientService) Create(ctx context.Context, actor Actor, orgID string, in CreateClientInput) (domain.Client, error) {
	log := slogx.FromContext(ctx)

	if _, err := s.access().Require(ctx, actor, orgID, domain.PermClientsCreate); err != nil {
		return domain.Client{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validx.Struct(in); err != nil {
		return domain.Client{}, err
	}

	now := clock(s.Now)
	c := domain.Client{
		ID:             idx.NewAt(now).String(),
		OrganizationID: orgID,
		Name:           in.Name,
		Email:          in.Email,
		Phone:          strings.TrimSpace(in.Phone),
		Company:        strings.TrimSpace(in.Company),
		Address:        strings.TrimSpace(in.Address),
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Store.Clients().CreateClient(ctx, c); err != nil {
		log.Error("failed to create client", slog.Any("error", err))
		return domain.Client{}, err
	}

	log.Debug("client created", slog.String("client_id", c.ID))
	return c, nil
}

func (s *ClientService) List(ctx context.Context, actor Actor, orgID string, page Page) ([]domain.Client, error) {
	if _, err := s.access().Require(ctx, actor, orgID, domain.PermClientsView); err != nil {
		return nil, err
	}
	if err := validx.Struct(page); err != nil {
		return nil, err
	}
	return s.Store.Clients().ListClients(ctx, orgID, page.store())
}

func (s *ClientService) Get(ctx context.Context, actor Actor, orgID, clientID string) (domain.Client, error) {
	if _, err := s.access().Require(ctx, actor, orgID, domain.PermClientsView); err != nil {
		return domain.Client{}, err
	}
	return s.get(ctx, orgID, clientID)
}

func (s *ClientService) get(ctx context.Context, orgID, clientID string) (domain.Client, error) {
	c, err := s.Store.Clients().GetClient(ctx, orgID, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Client{}, fmt.Errorf("%w: client", ErrNotFound)
	}
	return c, err
}

func (s *ClientService) Update(
	ctx context.Context,
	actor Actor,
	orgID, clientID string,
	in UpdateClientInput,
) (domain.Client, error) {
	log := slogx.FromContext(ctx)

	if _, err := s.access().Require(ctx, actor, orgID, domain.PermClientsUpdate); err != nil {
		return domain.Client{}, err
	}

	trim(in.Name, in.Phone, in.Company, in.Address)
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &email
	}
	if err := validx.Struct(in); err != nil {
		return domain.Client{}, err
	}

	c, err := s.get(ctx, orgID, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	setIf(&c.Name, in.Name)
	setIf(&c.Email, in.Email)
	setIf(&c.Phone, in.Phone)
	setIf(&c.Company, in.Company)
	setIf(&c.Address, in.Address)
	c.UpdatedAt = clock(s.Now)

	if err := s.Store.Clients().UpdateClient(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, fmt.Errorf("%w: client", ErrNotFound)
		}
		log.Error("failed to update client", slog.Any("error", err))
		return domain.Client{}, err
	}
	return c, nil
}

// trim trims every non-nil string in place.
func trim(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
