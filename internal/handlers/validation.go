package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/wifipass/pkg/errors"
	"github.com/charlesng35/wifipass/pkg/response"
	appValidator "github.com/charlesng35/wifipass/pkg/validator"
)

// validationMessages maps validator tags to messages. Field names are the JSON keys clients send.
var validationMessages = map[string]string{
	"required": "%s is required",
	"min":      "%s must be at least %s characters",
	"max":      "%s must be at most %s characters",
	"gt":       "%s must be greater than %s",
	"msisdn":   "%s must be a phone number of 8 to 15 digits",
}

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// On failure a 400 response is written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

func formatValidationError(err error) string {
	failures, ok := err.(appValidator.ValidationErrors)
	if !ok || len(failures) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, 0, len(failures))
	for _, failure := range failures {
		field := failure.Field
		if field == "" {
			field = "field"
		}

		template, known := validationMessages[failure.Tag]
		switch {
		case !known && failure.Param != "":
			messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
		case !known:
			messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
		case strings.Count(template, "%s") == 2:
			messages = append(messages, fmt.Sprintf(template, field, failure.Param))
		default:
			messages = append(messages, fmt.Sprintf(template, field))
		}
	}
	return strings.Join(messages, "; ")
}

// parseIntQuery reads a positive integer query parameter, falling back on absence or garbage.
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
