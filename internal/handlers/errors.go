package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/wifipass/internal/services"
	appErrors "github.com/charlesng35/wifipass/pkg/errors"
	"github.com/charlesng35/wifipass/pkg/response"
	appValidator "github.com/charlesng35/wifipass/pkg/validator"
)

var (
	errInvalidPlan     = appErrors.New("session.invalid_plan", "The selected plan is unknown or disabled", http.StatusUnprocessableEntity)
	errSessionNotFound = appErrors.New("session.not_found", "Access code not found", http.StatusNotFound)
	errAlreadyInactive = appErrors.New("session.already_inactive", "Session is already inactive", http.StatusConflict)
	errSessionExpired  = appErrors.New("session.expired", "Access code has expired", http.StatusGone)
	errSessionInactive = appErrors.New("session.inactive", "Session was disconnected by an operator", http.StatusLocked)
	errPlanNotFound    = appErrors.New("plan.not_found", "Plan not found", http.StatusNotFound)
	errPlanExists      = appErrors.New("plan.exists", "A plan with this identifier already exists", http.StatusConflict)
	errInvalidPayment  = appErrors.New("payment.invalid", "Unsupported payment method", http.StatusBadRequest)
	errPaymentDeclined = appErrors.New("payment.declined", "The payment was declined", http.StatusPaymentRequired)
)

// mapServiceError translates domain errors into API errors. Unknown errors become a generic 500.
func mapServiceError(err error) *appErrors.AppError {
	var validationErrs appValidator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return appErrors.NewBadRequest(formatValidationError(validationErrs))
	case errors.Is(err, services.ErrInvalidPlan):
		return errInvalidPlan.WithInternal(err)
	case errors.Is(err, services.ErrSessionNotFound):
		return errSessionNotFound
	case errors.Is(err, services.ErrSessionAlreadyInactive):
		return errAlreadyInactive
	case errors.Is(err, services.ErrSessionExpired):
		return errSessionExpired
	case errors.Is(err, services.ErrSessionInactive):
		return errSessionInactive
	case errors.Is(err, services.ErrPlanNotFound):
		return errPlanNotFound
	case errors.Is(err, services.ErrPlanExists):
		return errPlanExists
	case errors.Is(err, services.ErrInvalidPayment):
		return errInvalidPayment.WithInternal(err)
	case errors.Is(err, services.ErrPaymentDeclined):
		return errPaymentDeclined.WithInternal(err)
	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}

func respondServiceError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	response.Error(c, mapServiceError(err))
}
