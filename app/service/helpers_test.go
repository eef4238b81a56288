package service_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
	"github.com/vibast-solutions/ms-go-hackauth/app/notify"
	"github.com/vibast-solutions/ms-go-hackauth/app/repository"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"
	"github.com/vibast-solutions/ms-go-hackauth/app/token"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

var (
	userColumns = []string{
		"id",
		"email",
		"canonical_email",
		"name",
		"password_hash",
		"email_verified",
		"last_login",
		"created_at",
		"updated_at",
	}
	refreshTokenColumns = []string{
		"id",
		"user_id",
		"token",
		"expires_at",
		"created_at",
	}
)

const (
	findByCanonicalEmailQuery = `(?s)SELECT id, email, canonical_email, name, password_hash, email_verified, last_login, created_at, updated_at\s+FROM users WHERE canonical_email = \?`
	findByIDQuery             = `(?s)SELECT id, email, canonical_email, name, password_hash, email_verified, last_login, created_at, updated_at\s+FROM users WHERE id = \?`
	insertUserQuery           = `(?s)INSERT INTO users \(email, canonical_email, name, password_hash, email_verified, last_login, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?\)`
	updateUserQuery           = `(?s)UPDATE users SET\s+email = \?,\s+canonical_email = \?,\s+name = \?,\s+password_hash = \?,\s+email_verified = \?,\s+updated_at = \?\s+WHERE id = \?`
	updateLastLoginQuery      = `(?s)UPDATE users SET last_login = \?, updated_at = \? WHERE id = \?`
	insertDraftQuery          = `(?s)INSERT INTO draft_applications \(user_id, data_json, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?\)`
	findRefreshTokenForUpdate = `(?s)SELECT id, user_id, token, expires_at, created_at\s+FROM refresh_tokens WHERE token = \? FOR UPDATE`
	insertRefreshTokenQuery   = `(?s)INSERT INTO refresh_tokens \(user_id, token, expires_at, created_at\)\s+VALUES \(\?, \?, \?, \?\)`
	deleteRefreshTokenQuery   = `(?s)DELETE FROM refresh_tokens WHERE token = \? AND user_id = \?`
	deleteByUserIDQuery       = `(?s)DELETE FROM refresh_tokens WHERE user_id = \?`
)

const (
	testVerifyTTL = 72 * time.Hour
	testResetTTL  = 72 * time.Hour
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) sent() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]notify.Message(nil), n.messages...)
}

// captureArg matches any value and remembers it.
type captureArg struct {
	value driver.Value
}

func (c *captureArg) Match(v driver.Value) bool {
	c.value = v
	return true
}

type harness struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	cfg      *config.Config
	now      time.Time
	codec    *token.Codec
	notifier *recordingNotifier
	mailer   *service.Mailer
	accounts service.AccountDirectory
	sessions *service.SessionManager
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Tokens: config.TokenConfig{
			Secret:    "token-secret",
			VerifyTTL: testVerifyTTL,
			ResetTTL:  testResetTTL,
		},
		Password: config.PasswordConfig{
			Policy: config.PasswordPolicy{
				MinLength:      8,
				RequireNumber:  true,
				RequireSpecial: false,
			},
			BcryptCost: bcrypt.MinCost,
		},
		Site: config.SiteConfig{
			URL:       "https://my.hackathon.test",
			EventName: "HackTest",
		},
		Providers: map[string]config.ProviderConfig{
			"mlh": {
				Name:         "mlh",
				ClientID:     "client-id",
				ClientSecret: "client-secret",
				TokenURL:     "https://provider.test/oauth/token",
				UserURL:      "https://provider.test/api/user.json",
				Timeout:      time.Second,
			},
			"unconfigured": {Name: "unconfigured"},
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		db:       db,
		mock:     mock,
		cfg:      testConfig(),
		now:      time.Unix(1_700_000_000, 0),
		notifier: &recordingNotifier{},
	}
	h.codec = token.NewCodec(h.cfg.Tokens.Secret, h.cfg.Tokens.VerifyTTL, h.cfg.Tokens.ResetTTL,
		token.WithClock(func() time.Time { return h.now }))
	h.mailer = service.NewMailer(h.cfg.Site)
	h.accounts = service.NewAccountDirectory(repository.NewUserRepository(db), h.cfg.Password.BcryptCost)
	h.sessions = service.NewSessionManager(db, repository.NewRefreshTokenRepository(db), h.cfg.JWT)
	return h
}

func (h *harness) verify(t *testing.T) {
	t.Helper()

	if err := h.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func newTestUser(id uint64, email string) *entity.User {
	now := time.Unix(1_690_000_000, 0)
	return &entity.User{
		ID:             id,
		Email:          email,
		CanonicalEmail: service.CanonicalizeEmail(email),
		Name:           "Ada Lovelace",
		PasswordHash:   hashPassword("OldPassword1"),
		LastLogin:      sql.NullTime{Time: time.Unix(1_695_000_000, 0), Valid: true},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func hashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

func userRows(users ...*entity.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userColumns)
	for _, u := range users {
		var lastLogin interface{}
		if u.LastLogin.Valid {
			lastLogin = u.LastLogin.Time
		}
		rows.AddRow(u.ID, u.Email, u.CanonicalEmail, u.Name, u.PasswordHash, u.EmailVerified, lastLogin, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func expectFindByID(mock sqlmock.Sqlmock, id uint64, users ...*entity.User) {
	mock.ExpectQuery(findByIDQuery).
		WithArgs(id).
		WillReturnRows(userRows(users...))
}

func expectFindByEmail(mock sqlmock.Sqlmock, canonical string, users ...*entity.User) {
	mock.ExpectQuery(findByCanonicalEmailQuery).
		WithArgs(canonical).
		WillReturnRows(userRows(users...))
}

func expectRefreshInsert(mock sqlmock.Sqlmock, userID uint64) {
	mock.ExpectExec(insertRefreshTokenQuery).
		WithArgs(userID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}
