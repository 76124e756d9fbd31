package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/aussiebroadwan/gatekeep/pkg/idx"
)

var (
	ErrSessionNotFound = errors.New("session_not_found")
	ErrNotSessionOwner = errors.New("not_session_owner")
)

// SessionService tracks which devices a user is logged in from. A device
// has at most one active session, enforced by revoke-then-insert inside a
// transaction at login.
type SessionService struct {
	Store store.Store

	// Now is overridable for tests.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RecordLogin opens a session for a fresh login. If the device already had
// an active session it is revoked first, atomically, so concurrent logins
// from one device leave exactly one session standing.
func (s *SessionService) RecordLogin(ctx context.Context, user domain.User, deviceID, ip, userAgent string) (domain.UserSession, error) {
	now := s.now().UTC()

	sess := domain.UserSession{
		ID:         idx.New(),
		UserID:     user.ID,
		Username:   user.Username,
		DeviceID:   deviceID,
		IPAddress:  ip,
		UserAgent:  userAgent,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if deviceID != "" {
			if err := tx.Sessions().RevokeForDevice(ctx, user.ID, deviceID); err != nil {
				return err
			}
		}
		return tx.Sessions().Create(ctx, sess)
	})
	if err != nil {
		return domain.UserSession{}, err
	}
	return sess, nil
}

// ListActive returns the user's live sessions, newest first.
func (s *SessionService) ListActive(ctx context.Context, userID int64) ([]domain.UserSession, error) {
	return s.Store.Sessions().ListActiveForUser(ctx, userID)
}

// RevokeByID revokes one session, verifying it belongs to the caller.
func (s *SessionService) RevokeByID(ctx context.Context, userID int64, sessionID idx.ID) error {
	sess, err := s.Store.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if sess.UserID != userID {
		return ErrNotSessionOwner
	}
	return s.Store.Sessions().RevokeByID(ctx, sessionID)
}

// RevokeByDevice revokes the active session of one device.
func (s *SessionService) RevokeByDevice(ctx context.Context, userID int64, deviceID string) error {
	return s.Store.Sessions().RevokeForDevice(ctx, userID, deviceID)
}

// RevokeAll revokes every session a user holds.
func (s *SessionService) RevokeAll(ctx context.Context, userID int64) error {
	return s.Store.Sessions().RevokeAllForUser(ctx, userID)
}

// Touch bumps last_seen_at. Called on refresh so the sessions list
// reflects actual device activity.
func (s *SessionService) Touch(ctx context.Context, sessionID idx.ID) error {
	return s.Store.Sessions().Touch(ctx, sessionID, s.now().UTC())
}

// TouchByDevice bumps last_seen_at for the device's active session.
func (s *SessionService) TouchByDevice(ctx context.Context, userID int64, deviceID string) error {
	return s.Store.Sessions().TouchForDevice(ctx, userID, deviceID, s.now().UTC())
}
