package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
)

type verificationCodesRepo struct {
	q dbtx
}

func (r *verificationCodesRepo) Put(ctx context.Context, c domain.VerificationCode) error {
	// A resend replaces the previous code outright.
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO verification_codes (user_id, code, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			code = excluded.code,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		c.UserID, c.Code, c.ExpiresAt, c.CreatedAt,
	)
	return err
}

func (r *verificationCodesRepo) Get(ctx context.Context, userID int64) (domain.VerificationCode, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT user_id, code, expires_at, created_at
		FROM verification_codes WHERE user_id = ?`, userID,
	)

	var c domain.VerificationCode
	err := row.Scan(&c.UserID, &c.Code, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	return c, nil
}

func (r *verificationCodesRepo) Delete(ctx context.Context, userID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM verification_codes WHERE user_id = ?`, userID)
	return err
}

func (r *verificationCodesRepo) DeleteExpired(ctx context.Context, before time.Time) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM verification_codes WHERE expires_at < ?`, before)
	return err
}

// requireRowsAffected converts a no-op UPDATE into ErrNotFound so callers
// can distinguish "row missing or already consumed" from success.
func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
