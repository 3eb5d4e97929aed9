package sqldb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
)

type membersRepo struct {
	c conn
}

func (r *membersRepo) CreateMember(ctx context.Context, m domain.Member) error {
	_, err := r.c.exec(ctx, `
		INSERT INTO org_members (id, organization_id, user_id, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.OrganizationID, m.UserID, string(m.Role), m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
	return err
}

func (r *membersRepo) GetMember(ctx context.Context, orgID, userID string) (domain.Member, error) {
	var (
		m    domain.Member
		role string
	)
	err := r.c.queryRow(ctx, `
		SELECT id, organization_id, user_id, role, created_at, updated_at
		FROM org_members WHERE organization_id = ? AND user_id = ?`, orgID, userID,
	).Scan(&m.ID, &m.OrganizationID, &m.UserID, &role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.Member{}, mapNotFound(err)
	}
	m.Role = domain.Role(role)
	m.CreatedAt, m.UpdatedAt = m.CreatedAt.UTC(), m.UpdatedAt.UTC()
	return m, nil
}

func (r *membersRepo) ListMembers(ctx context.Context, orgID string) ([]domain.MemberProfile, error) {
	rows, err := r.c.query(ctx, `
		SELECT m.id, m.organization_id, m.user_id, m.role, m.created_at, m.updated_at, u.name, u.email
		FROM org_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = ?
		ORDER BY m.id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.MemberProfile{}
	for rows.Next() {
		var (
			p    domain.MemberProfile
			role string
		)
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.UserID, &role, &p.CreatedAt, &p.UpdatedAt, &p.Name, &p.Email); err != nil {
			return nil, err
		}
		p.Role = domain.Role(role)
		p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *membersRepo) ReplaceMemberRole(
	ctx context.Context,
	orgID, userID string,
	from, to domain.Role,
	at time.Time,
) error {
	return r.c.execOne(ctx, `
		UPDATE org_members SET role = ?, updated_at = ?
		WHERE organization_id = ? AND user_id = ? AND role = ?`,
		string(to), at.UTC(), orgID, userID, string(from),
	)
}

func (r *membersRepo) SetMemberRole(ctx context.Context, orgID, userID string, role domain.Role, at time.Time) error {
	return r.c.execOne(ctx, `
		UPDATE org_members SET role = ?, updated_at = ?
		WHERE organization_id = ? AND user_id = ?`,
		string(role), at.UTC(), orgID, userID,
	)
}

func (r *membersRepo) DeleteMember(ctx context.Context, orgID, userID string) error {
	return r.c.execOne(ctx,
		`DELETE FROM org_members WHERE organization_id = ? AND user_id = ? AND role <> ?`,
		orgID, userID, string(domain.RoleOwner))
}

func (r *membersRepo) CountOwners(ctx context.Context, orgID string) (int, error) {
	var n int
	err := r.c.queryRow(ctx,
		`SELECT COUNT(*) FROM org_members WHERE organization_id = ? AND role = ?`,
		orgID, string(domain.RoleOwner),
	).Scan(&n)
	return n, err
}
