package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrInvalidPlan indicates the requested plan does not exist or is disabled.
	ErrInvalidPlan = errors.New("plan is unknown or disabled")
	// ErrSessionNotFound indicates no session matches the supplied access code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyInactive is returned by Disconnect on a session that no longer grants access.
	// Callers treat it as success; the session is returned alongside the error.
	ErrSessionAlreadyInactive = errors.New("session already inactive")
	// ErrSessionExpired indicates the session reached its end time.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionInactive indicates an operator disconnected the session.
	ErrSessionInactive = errors.New("session disconnected")
	// ErrTokenGenerationFailed indicates a unique access code could not be issued.
	ErrTokenGenerationFailed = errors.New("access code generation failed")

	// ErrPlanNotFound indicates the plan record does not exist.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrPlanExists indicates a plan with the same identifier already exists.
	ErrPlanExists = errors.New("plan already exists")
	// ErrInvalidPayment indicates the purchase request failed validation.
	ErrInvalidPayment = errors.New("invalid payment request")
	// ErrPaymentDeclined indicates the gateway refused the charge.
	ErrPaymentDeclined = errors.New("payment declined")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}
