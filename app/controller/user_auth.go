package controller

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-hackauth/app/dto/http"
	"github.com/vibast-solutions/ms-go-hackauth/app/metrics"
	"github.com/vibast-solutions/ms-go-hackauth/app/middleware"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserAuthController struct {
	users    *service.UserAuthService
	accounts userFinder
	cookie   config.CookieConfig
}

func NewUserAuthController(users *service.UserAuthService, accounts userFinder, cookie config.CookieConfig) *UserAuthController {
	return &UserAuthController{users: users, accounts: accounts, cookie: cookie}
}

func (c *UserAuthController) Signup(ctx echo.Context) error {
	var req httpdto.SignupRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind signup request")
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Signup validation failed")
		return badRequest(ctx, err.Error())
	}

	current, err := currentUser(ctx, c.accounts)
	if err != nil {
		return fail(ctx, metrics.FlowSignup, err, logrus.Fields{"email": req.Email})
	}

	logrus.WithField("email", req.Email).Info("Signup request received")
	session, err := c.users.Signup(ctx.Request().Context(), current, service.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return fail(ctx, metrics.FlowSignup, err, logrus.Fields{"email": req.Email})
	}

	succeed(metrics.FlowSignup)
	logrus.WithFields(logrus.Fields{
		"user_id": session.User.ID,
		"email":   session.User.Email,
	}).Info("User signed up")
	return ctx.JSON(http.StatusCreated, sessionResponse(session))
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	var req httpdto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return badRequest(ctx, err.Error())
	}

	current, err := currentUser(ctx, c.accounts)
	if err != nil {
		return fail(ctx, metrics.FlowLogin, err, logrus.Fields{"email": req.Email})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	session, err := c.users.Login(ctx.Request().Context(), current, req.Email, req.Password)
	if err != nil {
		return fail(ctx, metrics.FlowLogin, err, logrus.Fields{"email": req.Email})
	}

	setLoggedInCookie(ctx, c.cookie)
	succeed(metrics.FlowLogin)
	logrus.WithField("user_id", session.User.ID).Info("Login successful")
	return ctx.JSON(http.StatusOK, sessionResponse(session))
}

func (c *UserAuthController) Logout(ctx echo.Context) error {
	var req httpdto.LogoutRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind logout request")
		return badRequest(ctx, "invalid request body")
	}

	claims := middleware.ClaimsFrom(ctx)
	if claims == nil {
		logrus.Warn("Logout failed: missing claims in context")
		return fail(ctx, metrics.FlowLogout, service.ErrInvalidSession, nil)
	}

	logrus.WithField("user_id", claims.UserID).Info("Logout request received")
	if err := c.users.Logout(ctx.Request().Context(), claims, req.RefreshToken); err != nil {
		return fail(ctx, metrics.FlowLogout, err, logrus.Fields{"user_id": claims.UserID})
	}

	deleteLoggedInCookie(ctx, c.cookie)
	succeed(metrics.FlowLogout)
	logrus.WithField("user_id", claims.UserID).Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "successfully logged out"})
}

func (c *UserAuthController) Refresh(ctx echo.Context) error {
	var req httpdto.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind refresh request")
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	session, err := c.users.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(ctx, metrics.FlowRefresh, err, nil)
	}

	succeed(metrics.FlowRefresh)
	return ctx.JSON(http.StatusOK, sessionResponse(session))
}
