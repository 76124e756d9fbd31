package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
)

type mfaSecretsRepo struct {
	q dbtx
}

func (r *mfaSecretsRepo) Upsert(ctx context.Context, s domain.MFASecret) error {
	// Replacing a secret restarts enrollment: enabled and confirmed_at reset.
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO mfa_secrets (user_id, secret, enabled, created_at, confirmed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			secret = excluded.secret,
			enabled = excluded.enabled,
			created_at = excluded.created_at,
			confirmed_at = excluded.confirmed_at`,
		s.UserID, s.Secret, s.Enabled, s.CreatedAt, mapOptionalTime(s.ConfirmedAt),
	)
	return err
}

func (r *mfaSecretsRepo) GetByUserID(ctx context.Context, userID int64) (domain.MFASecret, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT user_id, secret, enabled, created_at, confirmed_at
		FROM mfa_secrets WHERE user_id = ?`, userID,
	)

	var (
		s         domain.MFASecret
		confirmed sql.NullTime
	)
	err := row.Scan(&s.UserID, &s.Secret, &s.Enabled, &s.CreatedAt, &confirmed)
	if err != nil {
		return domain.MFASecret{}, mapNotFound(err)
	}
	s.ConfirmedAt = mapNullTimePtr(confirmed)
	return s, nil
}

func (r *mfaSecretsRepo) Confirm(ctx context.Context, userID int64, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE mfa_secrets SET enabled = 1, confirmed_at = ?
		WHERE user_id = ?`, at, userID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func (r *mfaSecretsRepo) Disable(ctx context.Context, userID int64) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE mfa_secrets SET enabled = 0, confirmed_at = NULL
		WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}
