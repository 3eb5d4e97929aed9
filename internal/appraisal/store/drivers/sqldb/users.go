package sqldb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
)

type usersRepo struct {
	c conn
}

const userColumns = `id, account_ref, name, email, phone, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.AccountRef, &u.Name, &u.Email, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, err
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.c.queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) UpsertUserByAccountRef(ctx context.Context, u domain.User) (domain.User, error) {
	_, err := r.c.exec(ctx, `
		INSERT INTO users (id, account_ref, name, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_ref) DO UPDATE SET
			email = excluded.email,
			name = CASE WHEN users.name = '' THEN excluded.name ELSE users.name END,
			updated_at = excluded.updated_at`,
		u.ID, u.AccountRef, u.Name, u.Email, u.Phone, u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	if err != nil {
		return domain.User{}, err
	}

	stored, err := scanUser(r.c.queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE account_ref = ?`, u.AccountRef))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return stored, nil
}

func (r *usersRepo) UpdateUserProfile(ctx context.Context, id, name, phone string, at time.Time) error {
	return r.c.execOne(ctx,
		`UPDATE users SET name = ?, phone = ?, updated_at = ? WHERE id = ?`,
		name, phone, at.UTC(), id,
	)
}

func (r *usersRepo) FindUserIDsByEmail(ctx context.Context, email string) ([]string, error) {
	rows, err := r.c.query(ctx, `SELECT id FROM users WHERE email = ? ORDER BY id`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
