package sqldb

import (
	"context"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
)

type organizationsRepo struct {
	c conn
}

func (r *organizationsRepo) CreateOrganization(ctx context.Context, org domain.Organization) error {
	_, err := r.c.exec(ctx, `
		INSERT INTO organizations (id, name, avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		org.ID, org.Name, org.Avatar, org.CreatedAt.UTC(), org.UpdatedAt.UTC(),
	)
	return err
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	var o domain.Organization
	err := r.c.queryRow(ctx,
		`SELECT id, name, avatar, created_at, updated_at FROM organizations WHERE id = ?`, id,
	).Scan(&o.ID, &o.Name, &o.Avatar, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Organization{}, mapNotFound(err)
	}
	o.CreatedAt, o.UpdatedAt = o.CreatedAt.UTC(), o.UpdatedAt.UTC()
	return o, nil
}

func (r *organizationsRepo) ListOrganizationsForUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	rows, err := r.c.query(ctx, `
		SELECT o.id, o.name, o.avatar, o.created_at, o.updated_at, m.role, m.created_at
		FROM org_members m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = ?
		ORDER BY m.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Membership{}
	for rows.Next() {
		var (
			ms   domain.Membership
			role string
		)
		o := &ms.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Avatar, &o.CreatedAt, &o.UpdatedAt, &role, &ms.JoinedAt); err != nil {
			return nil, err
		}
		o.CreatedAt, o.UpdatedAt, ms.JoinedAt = o.CreatedAt.UTC(), o.UpdatedAt.UTC(), ms.JoinedAt.UTC()
		ms.Role = domain.Role(role)
		out = append(out, ms)
	}
	return out, rows.Err()
}

func (r *organizationsRepo) UpdateOrganization(ctx context.Context, org domain.Organization) error {
	return r.c.execOne(ctx,
		`UPDATE organizations SET name = ?, avatar = ?, updated_at = ? WHERE id = ?`,
		org.Name, org.Avatar, org.UpdatedAt.UTC(), org.ID,
	)
}

func (r *organizationsRepo) DeleteOrganization(ctx context.Context, id string) error {
	return r.c.execOne(ctx, `DELETE FROM organizations WHERE id = ?`, id)
}
