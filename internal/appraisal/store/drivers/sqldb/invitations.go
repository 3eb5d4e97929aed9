package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
)

type invitationsRepo struct {
	c conn
}

const invitationColumns = `id, organization_id, email, token_hash, role, invited_by,
	expires_at, consumed_at, consumed_by, created_at`

func scanInvitation(row rowScanner) (domain.Invitation, error) {
	var (
		inv        domain.Invitation
		role       string
		consumedAt sql.NullTime
		consumedBy sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.TokenHash, &role, &inv.InvitedBy,
		&inv.ExpiresAt, &consumedAt, &consumedBy, &inv.CreatedAt)
	if err != nil {
		return domain.Invitation{}, err
	}
	inv.Role = domain.Role(role)
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.ConsumedAt = mapNullTimePtr(consumedAt)
	inv.ConsumedBy = mapNullString(consumedBy)
	return inv, nil
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.c.exec(ctx, `
		INSERT INTO org_invitations (id, organization_id, email, token_hash, role, invited_by, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.OrganizationID, inv.Email, inv.TokenHash, string(inv.Role), inv.InvitedBy,
		inv.ExpiresAt.UTC(), inv.CreatedAt.UTC(),
	)
	return err
}

func (r *invitationsRepo) GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	inv, err := scanInvitation(r.c.queryRow(ctx,
		`SELECT `+invitationColumns+` FROM org_invitations WHERE token_hash = ?`, hash))
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) ListInvitations(ctx context.Context, orgID string) ([]domain.Invitation, error) {
	rows, err := r.c.query(ctx,
		`SELECT `+invitationColumns+` FROM org_invitations WHERE organization_id = ? ORDER BY id DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) ConsumeInvitation(ctx context.Context, id, userID string, at time.Time) error {
	return r.c.execOne(ctx, `
		UPDATE org_invitations SET consumed_at = ?, consumed_by = ?
		WHERE id = ? AND consumed_at IS NULL`,
		at.UTC(), mapStringNull(userID), id,
	)
}
