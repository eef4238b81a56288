package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-hackauth/app/dto/http"
	"github.com/vibast-solutions/ms-go-hackauth/app/metrics"
	"github.com/vibast-solutions/ms-go-hackauth/app/middleware"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const defaultCallbackError = "Callback parameters missing."

type ExternalSignupController struct {
	signups *service.ExternalSignupService
	siteURL string
}

func NewExternalSignupController(signups *service.ExternalSignupService, site config.SiteConfig) *ExternalSignupController {
	return &ExternalSignupController{signups: signups, siteURL: site.URL}
}

// Check answers the provider redirect. A present code means the client
// should ask the user for a password and POST it back.
func (c *ExternalSignupController) Check(ctx echo.Context) error {
	if middleware.ClaimsFrom(ctx) != nil {
		return fail(ctx, metrics.FlowExternalSignup, service.ErrAlreadyAuthenticated, nil)
	}

	providerName := ctx.Param("provider")
	_, err := c.signups.CheckCallback(providerName, ctx.QueryParam("code"))
	if errors.Is(err, service.ErrMissingAuthCode) {
		message := ctx.QueryParam("error_description")
		if message == "" {
			message = defaultCallbackError
		}
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{
			Error:   message,
			Outcome: string(service.OutcomeMissingAuthCode),
		})
	}
	if err != nil {
		return fail(ctx, metrics.FlowExternalSignup, err, logrus.Fields{"provider": providerName})
	}

	return ctx.JSON(http.StatusOK, httpdto.CallbackResponse{
		Provider: providerName,
		Message:  "choose a password to finish signing up",
	})
}

func (c *ExternalSignupController) Signup(ctx echo.Context) error {
	if middleware.ClaimsFrom(ctx) != nil {
		return fail(ctx, metrics.FlowExternalSignup, service.ErrAlreadyAuthenticated, nil)
	}

	var req httpdto.SetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind callback request")
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	providerName := ctx.Param("provider")
	fields := logrus.Fields{"provider": providerName}

	session, err := c.signups.Signup(ctx.Request().Context(), service.ExternalSignupRequest{
		Provider:    providerName,
		Code:        ctx.QueryParam("code"),
		RedirectURL: c.siteURL + "/user/callback/" + providerName,
		Password:    req.Password,
	})
	if err != nil {
		return fail(ctx, metrics.FlowExternalSignup, err, fields)
	}

	succeed(metrics.FlowExternalSignup)
	logrus.WithFields(fields).WithField("user_id", session.User.ID).Info("External signup completed")
	return ctx.JSON(http.StatusCreated, sessionResponse(session))
}
