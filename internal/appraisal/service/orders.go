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

// DateLayout is the wire format of order due dates.
const DateLayout = time.DateOnly

type OrderService struct {
	Store store.Store
	Now   func() time.Time
}

type PropertyInput struct {
	Address    string `json:"address" validate:"required,max=500"`
	City       string `json:"city" validate:"max=120"`
	State      string `json:"state" validate:"max=60"`
	PostalCode string `json:"postalCode" validate:"max=20"`
	Type       string `json:"type" validate:"max=60"`
}

// trim runs before validation so a blank address fails required.
func (p *PropertyInput) trim() {
	if p != nil {
		trim(&p.Address, &p.City, &p.State, &p.PostalCode, &p.Type)
	}
}

func (p PropertyInput) toDomain() domain.Property {
	return domain.Property{
		Address:    p.Address,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Type:       p.Type,
	}
}

type CreateOrderInput struct {
	ClientID   string             `json:"clientId" validate:"required,ulid"`
	Reference  string             `json:"reference" validate:"max=100"`
	Property   PropertyInput      `json:"property"`
	Status     domain.OrderStatus `json:"status" validate:"omitempty,oneof=new assigned in_progress review completed cancelled"`
	AssigneeID *string            `json:"assigneeId" validate:"omitnil,ulid"`
	DueDate    *string            `json:"dueDate" validate:"omitnil,datetime=2006-01-02"`
	FeeCents   int64              `json:"feeCents" validate:"gte=0"`
	Notes      string             `json:"notes" validate:"max=4000"`
}

// UpdateOrderInput leaves nil fields untouched. An empty assigneeId or
// dueDate clears it.
type UpdateOrderInput struct {
	ClientID   *string             `json:"clientId" validate:"omitnil,ulid"`
	Reference  *string             `json:"reference" validate:"omitnil,max=100"`
	Property   *PropertyInput      `json:"property" validate:"omitnil"`
	Status     *domain.OrderStatus `json:"status" validate:"omitnil,oneof=new assigned in_progress review completed cancelled"`
	AssigneeID *string             `json:"assigneeId" validate:"omitnil,eq=|ulid"`
	DueDate    *string             `json:"dueDate" validate:"omitnil,eq=|datetime=2006-01-02"`
	FeeCents   *int64              `json:"feeCents" validate:"omitnil,gte=0"`
	Notes      *string             `json:"notes" validate:"omitnil,max=4000"`
}

type ListOrdersInput struct {
	Page
	Status     domain.OrderStatus `json:"status" validate:"omitempty,oneof=new assigned in_progress review completed cancelled"`
	AssigneeID string             `json:"assigneeId" validate:"omitempty,ulid"`
	ClientID   string             `json:"clientId" validate:"omitempty,ulid"`
}

func (s *OrderService) access() *Access { return &Access{Store: s.Store} }

func (s *OrderService) Create(ctx context.Context, actor Actor, orgID string, in CreateOrderInput) (domain.Order, error) {
	log := slogx.FromContext(ctx)

	if _, err := s.access().Require(ctx, actor, orgID, domain.PermOrdersCreate); err != nil {
		return domain.Order{}, err
	}

	in.ClientID = strings.TrimSpace(in.ClientID)
	trim(in.AssigneeID, in.DueDate)
	in.Property.trim()
	if err := validx.Struct(in); err != nil {
		return domain.Order{}, err
	}

	// References must stay inside the tenant.
	if err := s.checkClient(ctx, orgID, in.ClientID); err != nil {
		return domain.Order{}, err
	}
	if in.AssigneeID != nil {
		if err := s.checkAssignee(ctx, orgID, *in.AssigneeID); err != nil {
			return domain.Order{}, err
		}
	}

	now := clock(s.Now)
	o := domain.Order{
		ID:             idx.NewAt(now).String(),
		OrganizationID: orgID,
		ClientID:       in.ClientID,
		Reference:      strings.TrimSpace(in.Reference),
		Property:       in.Property.toDomain(),
		Status:         in.Status,
		AssigneeID:     in.AssigneeID,
		FeeCents:       in.FeeCents,
		Notes:          in.Notes,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if o.Status == "" {
		o.Status = domain.OrderNew
	}
	if in.DueDate != nil {
		o.DueDate = parseDate(*in.DueDate)
	}

	if err := s.Store.Orders().CreateOrder(ctx, o); err != nil {
		log.Error("failed to create order", slog.Any("error", err))
		return domain.Order{}, err
	}

	log.Debug("order created",
		slog.String("order_id", o.ID),
		slog.String("client_id", o.ClientID),
	)
	return o, nil
}

func (s *OrderService) List(ctx context.Context, actor Actor, orgID string, in ListOrdersInput) ([]domain.Order, error) {
	if _, err := s.access().Require(ctx, actor, orgID, domain.PermOrdersView); err != nil {
		return nil, err
	}
	if err := validx.Struct(in); err != nil {
		return nil, err
	}

	filter := store.OrderFilter{
		Status:     in.Status,
		AssigneeID: in.AssigneeID,
		ClientID:   in.ClientID,
	}
	return s.Store.Orders().ListOrders(ctx, orgID, filter, in.Page.store())
}

func (s *OrderService) Get(ctx context.Context, actor Actor, orgID, orderID string) (domain.Order, error) {
	if _, err := s.access().Require(ctx, actor, orgID, domain.PermOrdersView); err != nil {
		return domain.Order{}, err
	}
	return s.get(ctx, orgID, orderID)
}

func (s *OrderService) get(ctx context.Context, orgID, orderID string) (domain.Order, error) {
	o, err := s.Store.Orders().GetOrder(ctx, orgID, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Order{}, fmt.Errorf("%w: order", ErrNotFound)
	}
	return o, err
}

func (s *OrderService) Update(
	ctx context.Context,
	actor Actor,
	orgID, orderID string,
	in UpdateOrderInput,
) (domain.Order, error) {
	log := slogx.FromContext(ctx)

	if _, err := s.access().Require(ctx, actor, orgID, domain.PermOrdersUpdate); err != nil {
		return domain.Order{}, err
	}

	trim(in.ClientID, in.Reference, in.AssigneeID, in.DueDate)
	in.Property.trim()
	if err := validx.Struct(in); err != nil {
		return domain.Order{}, err
	}

	o, err := s.get(ctx, orgID, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if in.ClientID != nil && *in.ClientID != o.ClientID {
		if err := s.checkClient(ctx, orgID, *in.ClientID); err != nil {
			return domain.Order{}, err
		}
		o.ClientID = *in.ClientID
	}
	if in.AssigneeID != nil {
		if *in.AssigneeID == "" {
			o.AssigneeID = nil
		} else {
			if err := s.checkAssignee(ctx, orgID, *in.AssigneeID); err != nil {
				return domain.Order{}, err
			}
			o.AssigneeID = in.AssigneeID
		}
	}
	if in.DueDate != nil {
		o.DueDate = parseDate(*in.DueDate)
	}
	if in.Property != nil {
		o.Property = in.Property.toDomain()
	}
	setIf(&o.Reference, in.Reference)
	setIf(&o.Status, in.Status)
	setIf(&o.FeeCents, in.FeeCents)
	setIf(&o.Notes, in.Notes)
	o.UpdatedAt = clock(s.Now)

	if err := s.Store.Orders().UpdateOrder(ctx, o); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Order{}, fmt.Errorf("%w: order", ErrNotFound)
		}
		log.Error("failed to update order", slog.Any("error", err))
		return domain.Order{}, err
	}

	log.Debug("order updated",
		slog.String("order_id", o.ID),
		slog.String("status", string(o.Status)),
	)
	return o, nil
}

func (s *OrderService) checkClient(ctx context.Context, orgID, clientID string) error {
	_, err := s.Store.Clients().GetClient(ctx, orgID, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return validx.Field("clientId", "must reference a client of this organization")
	}
	return err
}

func (s *OrderService) checkAssignee(ctx context.Context, orgID, userID string) error {
	_, err := s.Store.Members().GetMember(ctx, orgID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return validx.Field("assigneeId", "must be a member of this organization")
	}
	return err
}

// parseDate turns a validated YYYY-MM-DD into a UTC midnight; "" means none.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
