package controller

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-hackauth/app/dto/http"
	"github.com/vibast-solutions/ms-go-hackauth/app/metrics"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type VerificationController struct {
	verification *service.VerificationService
	accounts     userFinder
}

func NewVerificationController(verification *service.VerificationService, accounts userFinder) *VerificationController {
	return &VerificationController{verification: verification, accounts: accounts}
}

// Status reports whether the signed-in user still has to verify the email.
func (c *VerificationController) Status(ctx echo.Context) error {
	user, err := currentUser(ctx, c.accounts)
	if err != nil {
		return fail(ctx, metrics.FlowVerifyRequest, err, nil)
	}
	if user == nil {
		return fail(ctx, metrics.FlowVerifyRequest, service.ErrInvalidSession, nil)
	}

	if err = c.verification.NeedsVerification(user); err != nil {
		return fail(ctx, metrics.FlowVerifyRequest, err, logrus.Fields{"user_id": user.ID})
	}
	return ctx.JSON(http.StatusOK, httpdto.VerificationStatusResponse{
		EmailVerified: false,
		Message:       "please verify your email",
	})
}

func (c *VerificationController) Send(ctx echo.Context) error {
	user, err := currentUser(ctx, c.accounts)
	if err != nil {
		return fail(ctx, metrics.FlowVerifyRequest, err, nil)
	}
	if user == nil {
		return fail(ctx, metrics.FlowVerifyRequest, service.ErrInvalidSession, nil)
	}

	if err = c.verification.RequestVerification(ctx.Request().Context(), user); err != nil {
		return fail(ctx, metrics.FlowVerifyRequest, err, logrus.Fields{"user_id": user.ID})
	}

	succeed(metrics.FlowVerifyRequest)
	logrus.WithField("user_id", user.ID).Info("Verification email sent")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "verification email successfully sent"})
}

func (c *VerificationController) Redeem(ctx echo.Context) error {
	current, err := currentUser(ctx, c.accounts)
	if err != nil {
		return fail(ctx, metrics.FlowVerifyRedeem, err, nil)
	}

	session, err := c.verification.Redeem(ctx.Request().Context(), current, ctx.Param("ref"), ctx.Param("token"))
	if err != nil {
		return fail(ctx, metrics.FlowVerifyRedeem, err, logrus.Fields{"ref": ctx.Param("ref")})
	}

	succeed(metrics.FlowVerifyRedeem)
	logrus.WithField("user_id", session.User.ID).Info("Email verified")
	return ctx.JSON(http.StatusOK, sessionResponse(session))
}
