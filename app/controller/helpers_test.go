package controller_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	httpdto "github.com/vibast-solutions/ms-go-hackauth/app/dto/http"
	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
	"github.com/vibast-solutions/ms-go-hackauth/app/middleware"
	"github.com/vibast-solutions/ms-go-hackauth/app/notify"
	"github.com/vibast-solutions/ms-go-hackauth/app/repository"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"
	"github.com/vibast-solutions/ms-go-hackauth/app/token"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	findByCanonicalEmailQuery = `(?s)SELECT id, email, canonical_email, name, password_hash, email_verified, last_login, created_at, updated_at\s+FROM users WHERE canonical_email = \?`
	findByIDQuery             = `(?s)SELECT id, email, canonical_email, name, password_hash, email_verified, last_login, created_at, updated_at\s+FROM users WHERE id = \?`
	insertUserQuery           = `(?s)INSERT INTO users \(email, canonical_email, name, password_hash, email_verified, last_login, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?\)`
	updateUserQuery           = `(?s)UPDATE users SET\s+email = \?,\s+canonical_email = \?,\s+name = \?,\s+password_hash = \?,\s+email_verified = \?,\s+updated_at = \?\s+WHERE id = \?`
	updateLastLoginQuery      = `(?s)UPDATE users SET last_login = \?, updated_at = \? WHERE id = \?`
	insertDraftQuery          = `(?s)INSERT INTO draft_applications \(user_id, data_json, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?\)`
	insertRefreshTokenQuery   = `(?s)INSERT INTO refresh_tokens \(user_id, token, expires_at, created_at\)\s+VALUES \(\?, \?, \?, \?\)`
	deleteRefreshTokenQuery   = `(?s)DELETE FROM refresh_tokens WHERE token = \? AND user_id = \?`
	deleteByUserIDQuery       = `(?s)DELETE FROM refresh_tokens WHERE user_id = \?`
)

var userColumns = []string{
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

type recordingNotifier struct {
	messages []notify.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

type testEnv struct {
	e        *echo.Echo
	db       *sql.DB
	mock     sqlmock.Sqlmock
	cfg      *config.Config
	codec    *token.Codec
	notifier *recordingNotifier
	accounts service.AccountDirectory
	sessions *service.SessionManager
	mailer   *service.Mailer
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Tokens: config.TokenConfig{
			Secret:            "token-secret",
			VerifyTTL:         72 * time.Hour,
			ResetTTL:          72 * time.Hour,
			MaskUnknownEmails: true,
		},
		Password: config.PasswordConfig{
			Policy: config.PasswordPolicy{
				MinLength:     8,
				RequireNumber: true,
			},
			BcryptCost: bcrypt.MinCost,
		},
		Site: config.SiteConfig{
			URL:       "https://my.hackathon.test",
			EventName: "HackTest",
		},
		Cookie: config.CookieConfig{
			Key:    "hackathon_logged_in",
			Domain: ".hackathon.test",
			MaxAge: 3600,
		},
		Providers: map[string]config.ProviderConfig{
			"unconfigured": {Name: "unconfigured"},
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		e:        echo.New(),
		db:       db,
		mock:     mock,
		cfg:      testConfig(),
		notifier: &recordingNotifier{},
	}
	env.codec = token.NewCodec(env.cfg.Tokens.Secret, env.cfg.Tokens.VerifyTTL, env.cfg.Tokens.ResetTTL)
	env.accounts = service.NewAccountDirectory(repository.NewUserRepository(db), env.cfg.Password.BcryptCost)
	env.sessions = service.NewSessionManager(db, repository.NewRefreshTokenRepository(db), env.cfg.JWT)
	env.mailer = service.NewMailer(env.cfg.Site)
	return env
}

func (env *testEnv) verify(t *testing.T) {
	t.Helper()

	if err := env.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// newContext builds an echo context; a non-nil user is treated as signed in.
func (env *testEnv) newContext(req *http.Request, user *entity.User, names []string, values ...string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	ctx := env.e.NewContext(req, rec)
	if len(names) > 0 {
		ctx.SetParamNames(names...)
		ctx.SetParamValues(values...)
	}
	if user != nil {
		ctx.Set(middleware.ContextClaims, &service.Claims{UserID: user.ID, Email: user.Email})
	}
	return ctx, rec
}

func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func newFormRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpdto.ErrorResponse {
	t.Helper()

	var body httpdto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) httpdto.SessionResponse {
	t.Helper()

	var body httpdto.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
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
