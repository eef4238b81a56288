package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-hackauth/app/dto/http"
	"github.com/vibast-solutions/ms-go-hackauth/app/metrics"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const resetRequestedMessage = "if an account exists for this email, a reset link has been sent"

type PasswordResetController struct {
	resets            *service.PasswordResetService
	maskUnknownEmails bool
}

// NewPasswordResetController builds the reset endpoints. With
// maskUnknownEmails set, requests for unknown emails look successful.
func NewPasswordResetController(resets *service.PasswordResetService, maskUnknownEmails bool) *PasswordResetController {
	return &PasswordResetController{resets: resets, maskUnknownEmails: maskUnknownEmails}
}

func (c *PasswordResetController) Request(ctx echo.Context) error {
	var req httpdto.PasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset request")
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	err := c.resets.RequestReset(ctx.Request().Context(), req.Email)
	if errors.Is(err, service.ErrNoSuchAccount) && c.maskUnknownEmails {
		metrics.RecordFlowOutcome(metrics.FlowResetRequest, string(service.OutcomeNoSuchAccount))
		logrus.WithField("email", req.Email).Info("Password reset requested for unknown email")
		return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: resetRequestedMessage})
	}
	if err != nil {
		return fail(ctx, metrics.FlowResetRequest, err, logrus.Fields{"email": req.Email})
	}

	succeed(metrics.FlowResetRequest)
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: resetRequestedMessage})
}

func (c *PasswordResetController) Check(ctx echo.Context) error {
	valid, err := c.resets.CheckLink(ctx.Request().Context(), ctx.Param("ref"), ctx.Param("token"))
	if err != nil {
		return fail(ctx, metrics.FlowResetCheck, err, nil)
	}
	if !valid {
		metrics.RecordFlowOutcome(metrics.FlowResetCheck, string(service.OutcomeTokenExpiredOrInvalid))
		return ctx.JSON(http.StatusOK, httpdto.ResetLinkResponse{ValidLink: false})
	}

	succeed(metrics.FlowResetCheck)
	return ctx.JSON(http.StatusOK, httpdto.ResetLinkResponse{ValidLink: true})
}

func (c *PasswordResetController) Confirm(ctx echo.Context) error {
	var req httpdto.SetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind set password request")
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	err := c.resets.Confirm(ctx.Request().Context(), ctx.Param("ref"), ctx.Param("token"), req.Password)
	if err != nil {
		return fail(ctx, metrics.FlowResetConfirm, err, logrus.Fields{"ref": ctx.Param("ref")})
	}

	succeed(metrics.FlowResetConfirm)
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password has been reset"})
}
