package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
)

type resetTokensRepo struct {
	q dbtx
}

func (r *resetTokensRepo) Create(ctx context.Context, t domain.PasswordResetToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (fingerprint, user_id, expires_at, used_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.Fingerprint, t.UserID, t.ExpiresAt, mapOptionalTime(t.UsedAt), t.CreatedAt,
	)
	return err
}

func (r *resetTokensRepo) GetByFingerprint(ctx context.Context, fp string) (domain.PasswordResetToken, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT fingerprint, user_id, expires_at, used_at, created_at
		FROM password_reset_tokens WHERE fingerprint = ?`, fp,
	)

	var (
		t    domain.PasswordResetToken
		used sql.NullTime
	)
	err := row.Scan(&t.Fingerprint, &t.UserID, &t.ExpiresAt, &used, &t.CreatedAt)
	if err != nil {
		return domain.PasswordResetToken{}, mapNotFound(err)
	}
	t.UsedAt = mapNullTimePtr(used)
	return t, nil
}

func (r *resetTokensRepo) MarkUsed(ctx context.Context, fp string, at time.Time) error {
	// The used_at IS NULL guard makes consumption single-winner under
	// concurrent attempts.
	res, err := r.q.ExecContext(ctx, `
		UPDATE password_reset_tokens SET used_at = ?
		WHERE fingerprint = ? AND used_at IS NULL`, at, fp)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func (r *resetTokensRepo) DeleteExpired(ctx context.Context, before time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < ? OR used_at IS NOT NULL`, before)
	return err
}
