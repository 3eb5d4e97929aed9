package sqldb

import (
	"context"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
)

type clientsRepo struct {
	c conn
}

const clientColumns = `id, organization_id, name, email, phone, company, address, created_by, created_at, updated_at`

func scanClient(row rowScanner) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Address,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return c, err
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.c.exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OrganizationID, c.Name, c.Email, c.Phone, c.Company, c.Address,
		c.CreatedBy, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	return err
}

func (r *clientsRepo) GetClient(ctx context.Context, orgID, id string) (domain.Client, error) {
	c, err := scanClient(r.c.queryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE organization_id = ? AND id = ?`, orgID, id))
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context, orgID string, page store.Page) ([]domain.Client, error) {
	limit, offset := pageArgs(page)
	rows, err := r.c.query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE organization_id = ? ORDER BY name, id LIMIT ? OFFSET ?`,
		orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *clientsRepo) UpdateClient(ctx context.Context, c domain.Client) error {
	return r.c.execOne(ctx, `
		UPDATE clients SET name = ?, email = ?, phone = ?, company = ?, address = ?, updated_at = ?
		WHERE organization_id = ? AND id = ?`,
		c.Name, c.Email, c.Phone, c.Company, c.Address, c.UpdatedAt.UTC(), c.OrganizationID, c.ID,
	)
}
