package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const loggedInCookieValue = "biene"

// bestEffort runs a side channel whose failure must never fail the request.
func bestEffort(op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("op", op).Warnf("side channel panicked: %v", r)
		}
	}()

	if err := fn(); err != nil {
		logrus.WithError(err).WithField("op", op).Warn("side channel failed")
	}
}

// setLoggedInCookie tells the landing page on the hackathon domain that the
// visitor is signed in.
func setLoggedInCookie(ctx echo.Context, cfg config.CookieConfig) {
	if !cfg.Enabled() {
		return
	}
	bestEffort("set_logged_in_cookie", func() error {
		return writeCookie(ctx, &http.Cookie{
			Name:   cfg.Key,
			Value:  loggedInCookieValue,
			Domain: cfg.Domain,
			Path:   "/",
			MaxAge: cfg.MaxAge,
		})
	})
}

func deleteLoggedInCookie(ctx echo.Context, cfg config.CookieConfig) {
	if !cfg.Enabled() {
		return
	}
	bestEffort("delete_logged_in_cookie", func() error {
		return writeCookie(ctx, &http.Cookie{
			Name:    cfg.Key,
			Domain:  cfg.Domain,
			Path:    "/",
			MaxAge:  -1,
			Expires: time.Unix(0, 0),
		})
	})
}

func writeCookie(ctx echo.Context, cookie *http.Cookie) error {
	if err := cookie.Valid(); err != nil {
		return fmt.Errorf("cookie %q: %w", cookie.Name, err)
	}
	ctx.SetCookie(cookie)
	return nil
}
