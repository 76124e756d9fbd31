package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/pkg/idx"
)

type refreshTokensRepo struct {
	q dbtx
}

func (r *refreshTokensRepo) Create(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, username, fingerprint, device_id, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		t.ID.String(), t.UserID, t.Username, t.Fingerprint, t.DeviceID, t.ExpiresAt, t.CreatedAt,
	)
	return err
}

func (r *refreshTokensRepo) GetByFingerprint(ctx context.Context, fp string) (domain.RefreshToken, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, username, fingerprint, device_id, expires_at, revoked, revoked_at, created_at
		FROM refresh_tokens WHERE fingerprint = ?`, fp,
	)

	var (
		t       domain.RefreshToken
		id      string
		revoked sql.NullTime
	)
	err := row.Scan(&id, &t.UserID, &t.Username, &t.Fingerprint, &t.DeviceID, &t.ExpiresAt, &t.Revoked, &revoked, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.ID = idx.ID(id)
	t.RevokedAt = mapNullTimePtr(revoked)
	return t, nil
}

func (r *refreshTokensRepo) Revoke(ctx context.Context, id idx.ID) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1, revoked_at = ?
		WHERE id = ? AND revoked = 0`,
		time.Now().UTC(), id.String())
	return err
}

func (r *refreshTokensRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1, revoked_at = ?
		WHERE user_id = ? AND revoked = 0`,
		time.Now().UTC(), userID)
	return err
}

func (r *refreshTokensRepo) RevokeForDevice(ctx context.Context, userID int64, deviceID string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1, revoked_at = ?
		WHERE user_id = ? AND device_id = ? AND revoked = 0`,
		time.Now().UTC(), userID, deviceID)
	return err
}

func (r *refreshTokensRepo) DeleteExpired(ctx context.Context, before time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ? OR (revoked = 1 AND created_at < ?)`,
		before, before)
	return err
}
