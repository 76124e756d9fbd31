package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/directory"
	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/ratelimit"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSigningSecret = []byte("service-test-secret-0123456789ab")

// fakeDirectory is an in-memory stand-in for the user directory service.
type fakeDirectory struct {
	mu     sync.Mutex
	users  map[int64]domain.User
	nextID int64
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[int64]domain.User), nextID: 1}
}

func (d *fakeDirectory) addUser(u domain.User) domain.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u.ID == 0 {
		u.ID = d.nextID
		d.nextID++
	}
	d.users[u.ID] = u
	return u
}

func (d *fakeDirectory) GetByID(_ context.Context, id int64) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return domain.User{}, directory.ErrUserNotFound
	}
	return u, nil
}

func (d *fakeDirectory) GetByUsername(_ context.Context, username string) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, directory.ErrUserNotFound
}

func (d *fakeDirectory) GetByEmail(_ context.Context, email string) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, directory.ErrUserNotFound
}

func (d *fakeDirectory) Create(_ context.Context, nu directory.NewUser) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == nu.Email || u.Username == nu.Username {
			return domain.User{}, directory.ErrConflict
		}
	}
	u := domain.User{
		ID:           d.nextID,
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Roles:        []string{"ROLE_USER"},
		Permissions:  []string{"CHAT:SEND"},
		Enabled:      true,
	}
	d.nextID++
	d.users[u.ID] = u
	return u, nil
}

func (d *fakeDirectory) SetPasswordHash(_ context.Context, userID int64, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return directory.ErrUserNotFound
	}
	u.PasswordHash = hash
	d.users[userID] = u
	return nil
}

func (d *fakeDirectory) MarkEmailVerified(_ context.Context, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return directory.ErrUserNotFound
	}
	u.EmailVerified = true
	d.users[userID] = u
	return nil
}

// fakeMailer records what would have been mailed.
type fakeMailer struct {
	mu          sync.Mutex
	codes       map[string]string // email -> code
	resetTokens map[string]string // email -> raw token
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{codes: make(map[string]string), resetTokens: make(map[string]string)}
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetTokens[email] = token
	return nil
}

func (m *fakeMailer) codeFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func (m *fakeMailer) resetTokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetTokens[email]
}

type fakeNotifier struct {
	mu     sync.Mutex
	logins int
}

func (n *fakeNotifier) NotifyLogin(context.Context, int64, string, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logins++
	return nil
}

type fixture struct {
	Auth     *service.AuthService
	Tokens   *service.TokenService
	Sessions *service.SessionService
	MFA      *service.MFAService

	Dir      *fakeDirectory
	Mailer   *fakeMailer
	Notifier *fakeNotifier
	Verifier *jwtx.HS256Verifier

	// now drives every service clock in the fixture.
	now time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	f := &fixture{
		Dir:      newFakeDirectory(),
		Mailer:   newFakeMailer(),
		Notifier: &fakeNotifier{},
		// Anchored to the wall clock so minted JWTs verify with real time.
		now: time.Now().UTC().Truncate(time.Second),
	}
	clock := func() time.Time { return f.now }

	f.Verifier = jwtx.NewHS256Verifier(testSigningSecret, "gatekeep", time.Minute)

	f.Tokens = &service.TokenService{
		Signer:     jwtx.NewHS256Signer(testSigningSecret),
		Verifier:   f.Verifier,
		Store:      st,
		Users:      f.Dir,
		Issuer:     "gatekeep",
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
		Now:        clock,
	}
	f.Sessions = &service.SessionService{Store: st, Now: clock}
	f.MFA = &service.MFAService{Store: st, Issuer: "gatekeep", Now: clock}

	rateStore := ratelimit.NewMemoryStore()
	rateStore.Now = clock

	f.Auth = &service.AuthService{
		Users:    f.Dir,
		Mailer:   f.Mailer,
		Notifier: f.Notifier,
		Store:    st,
		Tokens:   f.Tokens,
		Sessions: f.Sessions,
		MFA:      f.MFA,
		Limiter:  ratelimit.New(rateStore),
		Now:      clock,
	}
	return f
}

// seedUser registers a ready-to-login account directly.
func (f *fixture) seedUser(t *testing.T, username, email, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	return f.Dir.addUser(domain.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		Roles:         []string{"ROLE_USER"},
		Permissions:   []string{"CHAT:SEND"},
		EmailVerified: true,
		Enabled:       true,
	})
}
