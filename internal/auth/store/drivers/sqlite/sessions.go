package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/pkg/idx"
)

type sessionsRepo struct {
	q dbtx
}

func (r *sessionsRepo) Create(ctx context.Context, s domain.UserSession) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO user_sessions (id, user_id, username, device_id, ip_address, user_agent, created_at, last_seen_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.UserID, s.Username, s.DeviceID, s.IPAddress, s.UserAgent,
		s.CreatedAt, s.LastSeenAt, mapOptionalTime(s.RevokedAt),
	)
	return err
}

func (r *sessionsRepo) GetByID(ctx context.Context, id idx.ID) (domain.UserSession, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, username, device_id, ip_address, user_agent, created_at, last_seen_at, revoked_at
		FROM user_sessions WHERE id = ?`, id.String(),
	)
	return scanSession(row)
}

func (r *sessionsRepo) ListActiveForUser(ctx context.Context, userID int64) ([]domain.UserSession, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, username, device_id, ip_address, user_agent, created_at, last_seen_at, revoked_at
		FROM user_sessions
		WHERE user_id = ? AND revoked_at IS NULL
		ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionsRepo) RevokeByID(ctx context.Context, id idx.ID) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE user_sessions SET revoked_at = ?
		WHERE id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), id.String())
	return err
}

func (r *sessionsRepo) RevokeForDevice(ctx context.Context, userID int64, deviceID string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE user_sessions SET revoked_at = ?
		WHERE user_id = ? AND device_id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), userID, deviceID)
	return err
}

func (r *sessionsRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE user_sessions SET revoked_at = ?
		WHERE user_id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), userID)
	return err
}

func (r *sessionsRepo) Touch(ctx context.Context, id idx.ID, at time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE user_sessions SET last_seen_at = ?
		WHERE id = ? AND revoked_at IS NULL`,
		at, id.String())
	return err
}

func (r *sessionsRepo) TouchForDevice(ctx context.Context, userID int64, deviceID string, at time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE user_sessions SET last_seen_at = ?
		WHERE user_id = ? AND device_id = ? AND revoked_at IS NULL`,
		at, userID, deviceID)
	return err
}

func (r *sessionsRepo) DeleteRevoked(ctx context.Context, before time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM user_sessions WHERE revoked_at IS NOT NULL AND revoked_at < ?`, before)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.UserSession, error) {
	var (
		s       domain.UserSession
		id      string
		revoked sql.NullTime
	)
	err := row.Scan(&id, &s.UserID, &s.Username, &s.DeviceID, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.LastSeenAt, &revoked)
	if err != nil {
		return domain.UserSession{}, mapNotFound(err)
	}
	s.ID = idx.ID(id)
	s.RevokedAt = mapNullTimePtr(revoked)
	return s, nil
}
