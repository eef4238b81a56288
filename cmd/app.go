package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/vibast-solutions/ms-go-hackauth/app/notify"
	"github.com/vibast-solutions/ms-go-hackauth/app/provider"
	"github.com/vibast-solutions/ms-go-hackauth/app/repository"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"
	"github.com/vibast-solutions/ms-go-hackauth/app/token"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// application holds the services shared by the HTTP server and the CLI.
type application struct {
	db           *sql.DB
	redis        *redis.Client
	users        *repository.UserRepository
	accounts     service.AccountDirectory
	sessions     *service.SessionManager
	userAuth     *service.UserAuthService
	verification *service.VerificationService
	resets       *service.PasswordResetService
	signups      *service.ExternalSignupService
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	app := &application{db: db}

	var sessionOpts []service.SessionOption
	if cfg.Redis.Addr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err = app.redis.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		sessionOpts = append(sessionOpts, service.WithDenylist(repository.NewRedisSessionDenylist(app.redis)))
		logrus.WithField("addr", cfg.Redis.Addr).Info("Session denylist enabled")
	} else {
		logrus.Warn("REDIS_ADDR not set, logged out access tokens stay valid until they expire")
	}

	app.users = repository.NewUserRepository(db)
	app.accounts = service.NewAccountDirectory(app.users, cfg.Password.BcryptCost)
	app.sessions = service.NewSessionManager(db, repository.NewRefreshTokenRepository(db), cfg.JWT, sessionOpts...)

	codec := token.NewCodec(cfg.Tokens.Secret, cfg.Tokens.VerifyTTL, cfg.Tokens.ResetTTL)
	mailer := service.NewMailer(cfg.Site)
	notifier := newNotifier(cfg.Mail)

	app.userAuth = service.NewUserAuthService(app.accounts, app.users, app.sessions, cfg.Password.Policy)
	app.verification = service.NewVerificationService(app.accounts, codec, notifier, mailer, app.sessions)
	app.resets = service.NewPasswordResetService(app.accounts, codec, notifier, mailer, app.sessions, cfg.Password.Policy)
	app.signups = service.NewExternalSignupService(
		db,
		app.accounts,
		cfg.Providers,
		provider.NewClient(&http.Client{}),
		app.sessions,
		cfg.Password,
	)

	return app, nil
}

func (a *application) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.db.Close()
}

func newNotifier(cfg config.MailConfig) notify.Notifier {
	if cfg.SMTPAddr == "" {
		logrus.Warn("SMTP_ADDR not set, emails are written to the log")
		return notify.NewLogNotifier()
	}
	return notify.NewSMTPNotifier(cfg)
}
