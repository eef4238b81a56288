package controller

import (
	"context"
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-hackauth/app/dto/http"
	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
	"github.com/vibast-solutions/ms-go-hackauth/app/metrics"
	"github.com/vibast-solutions/ms-go-hackauth/app/middleware"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const homePath = "/"

type userFinder interface {
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
}

var outcomeStatus = map[service.Outcome]int{
	service.OutcomeAlreadyVerified:       http.StatusConflict,
	service.OutcomeUserResolutionError:   http.StatusNotFound,
	service.OutcomeIdentityMismatch:      http.StatusForbidden,
	service.OutcomeTokenExpiredOrInvalid: http.StatusBadRequest,
	service.OutcomeNoSuchAccount:         http.StatusNotFound,
	service.OutcomeMissingAuthCode:       http.StatusBadRequest,
	service.OutcomeProviderAuthFailed:    http.StatusBadGateway,
	service.OutcomeDuplicateAccount:      http.StatusConflict,
	service.OutcomeWeakPassword:          http.StatusBadRequest,
	service.OutcomeInvalidCredentials:    http.StatusUnauthorized,
	service.OutcomeInvalidSession:        http.StatusUnauthorized,
}

var outcomeMessage = map[service.Outcome]string{
	service.OutcomeAlreadyVerified:       "your email has already been verified",
	service.OutcomeUserResolutionError:   "this user no longer exists, please sign up again",
	service.OutcomeIdentityMismatch:      "trying to verify the wrong user, please log out",
	service.OutcomeTokenExpiredOrInvalid: "this link has expired or is invalid",
	service.OutcomeNoSuchAccount:         "no account with that email",
	service.OutcomeMissingAuthCode:       "missing code, please start again",
	service.OutcomeProviderAuthFailed:    "authentication failed, please try again",
	service.OutcomeDuplicateAccount:      "an account with this email already exists",
	service.OutcomeInvalidCredentials:    "wrong email or password",
	service.OutcomeInvalidSession:        "invalid or expired session",
}

// fail records the flow outcome and answers with the matching status. Flow
// outcomes that mean "go home" become redirects.
func fail(ctx echo.Context, flow string, err error, fields logrus.Fields) error {
	outcome := service.OutcomeOf(err)
	metrics.RecordFlowOutcome(flow, string(outcome))

	entry := logrus.WithFields(fields).WithField("flow", flow).WithField("outcome", outcome)

	switch outcome {
	case service.OutcomeProviderNotConfigured, service.OutcomeAlreadyAuthenticated:
		entry.Info("Redirecting home")
		return ctx.Redirect(http.StatusFound, homePath)
	case service.OutcomeInternal:
		entry.WithError(err).Error("Flow failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{
			Error:   "internal server error",
			Outcome: string(outcome),
		})
	}

	entry.WithError(err).Warn("Flow rejected")
	message := outcomeMessage[outcome]
	if errors.Is(err, service.ErrWeakPassword) {
		message = err.Error()
	}
	return ctx.JSON(outcomeStatus[outcome], httpdto.ErrorResponse{
		Error:   message,
		Outcome: string(outcome),
	})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: message})
}

func succeed(flow string) {
	metrics.RecordFlowOutcome(flow, string(service.OutcomeSuccess))
}

func sessionResponse(session *service.Session) httpdto.SessionResponse {
	return httpdto.SessionResponse{
		UserID:        session.User.ID,
		Email:         session.User.Email,
		EmailVerified: session.User.EmailVerified,
		AccessToken:   session.AccessToken,
		RefreshToken:  session.RefreshToken,
		ExpiresIn:     session.ExpiresIn,
	}
}

// currentUser loads the signed-in user, or nil for anonymous requests and
// accounts deleted since the token was issued.
func currentUser(ctx echo.Context, users userFinder) (*entity.User, error) {
	claims := middleware.ClaimsFrom(ctx)
	if claims == nil {
		return nil, nil
	}
	return users.FindByID(ctx.Request().Context(), claims.UserID)
}
