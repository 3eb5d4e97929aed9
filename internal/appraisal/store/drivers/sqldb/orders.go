package sqldb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
)

type ordersRepo struct {
	c conn
}

const orderColumns = `id, organization_id, client_id, reference,
	property_address, property_city, property_state, property_postal_code, property_type,
	status, assignee_id, due_date, fee_cents, notes, created_by, created_at, updated_at`

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o        domain.Order
		status   string
		assignee sql.NullString
		due      sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrganizationID, &o.ClientID, &o.Reference,
		&o.Property.Address, &o.Property.City, &o.Property.State, &o.Property.PostalCode, &o.Property.Type,
		&status, &assignee, &due, &o.FeeCents, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.AssigneeID = mapNullStringPtr(assignee)
	o.DueDate = mapNullTimePtr(due)
	o.CreatedAt, o.UpdatedAt = o.CreatedAt.UTC(), o.UpdatedAt.UTC()
	return o, nil
}

func (r *ordersRepo) CreateOrder(ctx context.Context, o domain.Order) error {
	_, err := r.c.exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrganizationID, o.ClientID, o.Reference,
		o.Property.Address, o.Property.City, o.Property.State, o.Property.PostalCode, o.Property.Type,
		string(o.Status), mapOptionalString(o.AssigneeID), mapOptionalTime(o.DueDate), o.FeeCents, o.Notes,
		o.CreatedBy, o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	return err
}

func (r *ordersRepo) GetOrder(ctx context.Context, orgID, id string) (domain.Order, error) {
	o, err := scanOrder(r.c.queryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE organization_id = ? AND id = ?`, orgID, id))
	if err != nil {
		return domain.Order{}, mapNotFound(err)
	}
	return o, nil
}

func (r *ordersRepo) ListOrders(
	ctx context.Context,
	orgID string,
	filter store.OrderFilter,
	page store.Page,
) ([]domain.Order, error) {
	where := []string{"organization_id = ?"}
	args := []any{orgID}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.AssigneeID != "" {
		where = append(where, "assignee_id = ?")
		args = append(args, filter.AssigneeID)
	}
	if filter.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, filter.ClientID)
	}

	limit, offset := pageArgs(page)
	args = append(args, limit, offset)

	rows, err := r.c.query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+strings.Join(where, " AND ")+
			` ORDER BY id DESC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *ordersRepo) UpdateOrder(ctx context.Context, o domain.Order) error {
	return r.c.execOne(ctx, `
		UPDATE orders SET
			client_id = ?, reference = ?,
			property_address = ?, property_city = ?, property_state = ?, property_postal_code = ?, property_type = ?,
			status = ?, assignee_id = ?, due_date = ?, fee_cents = ?, notes = ?, updated_at = ?
		WHERE organization_id = ? AND id = ?`,
		o.ClientID, o.Reference,
		o.Property.Address, o.Property.City, o.Property.State, o.Property.PostalCode, o.Property.Type,
		string(o.Status), mapOptionalString(o.AssigneeID), mapOptionalTime(o.DueDate), o.FeeCents, o.Notes,
		o.UpdatedAt.UTC(), o.OrganizationID, o.ID,
	)
}
