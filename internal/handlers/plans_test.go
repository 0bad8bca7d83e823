package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/wifipass/internal/handlers/testutil"
)

type planPayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           int64  `json:"price"`
	DurationSeconds int64  `json:"duration_seconds"`
	DurationLabel   string `json:"duration_label"`
	SpeedMbps       int    `json:"speed_mbps"`
	Enabled         bool   `json:"enabled"`
}

func listPlans(t *testing.T, env *testutil.Env, path string) []planPayload {
	t.Helper()
	w := env.Request(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var plans []planPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &plans)
	return plans
}

func TestPublicPlansHideDisabled(t *testing.T) {
	env := testutil.NewEnv(t)

	plans := listPlans(t, env, "/api/plans")
	require.Len(t, plans, 3)
	require.Equal(t, "basic", plans[0].ID)
	require.Equal(t, int64(100), plans[0].Price)
	require.Equal(t, "1 hour", plans[0].DurationLabel)

	w := env.Request(http.MethodPost, "/api/admin/plans/premium/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, listPlans(t, env, "/api/plans"), 2)
	all := listPlans(t, env, "/api/admin/plans")
	require.Len(t, all, 3)
}

func TestAdminPlanCRUD(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/admin/plans", map[string]any{
		"id":               "weekend",
		"name":             "Weekend",
		"price":            800,
		"duration_seconds": 172800,
		"speed_mbps":       8,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created planPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &created)
	require.Equal(t, "weekend", created.ID)
	require.True(t, created.Enabled)
	require.Equal(t, "2 days", created.DurationLabel)

	w = env.Request(http.MethodPost, "/api/admin/plans", map[string]any{
		"id": "weekend", "name": "Again", "price": 1, "duration_seconds": 1, "speed_mbps": 1,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "plan.exists", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodPatch, "/api/admin/plans/weekend", map[string]any{"price": 900})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated planPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.Equal(t, int64(900), updated.Price)

	w = env.Request(http.MethodPatch, "/api/admin/plans/weekend", map[string]any{"price": -1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, testutil.DecodeResponse(t, w).Error.Message, "price must be greater than 0")

	w = env.Request(http.MethodDelete, "/api/admin/plans/weekend", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodPatch, "/api/admin/plans/weekend", map[string]any{"price": 900})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "plan.not_found", testutil.DecodeResponse(t, w).Error.Code)
}

func TestCreatePlanValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/admin/plans", map[string]any{
		"name": "", "price": 0, "duration_seconds": 60, "speed_mbps": 1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	message := testutil.DecodeResponse(t, w).Error.Message
	require.Contains(t, message, "name is required")
	require.Contains(t, message, "price must be greater than 0")
}

func TestSessionsOfDisabledPlanStayValid(t *testing.T) {
	env := testutil.NewEnv(t)

	created := env.CreateSession("basic", "phone")

	w := env.Request(http.MethodPost, "/api/admin/plans/basic/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodGet, "/api/sessions/"+created.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var session testutil.SessionPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &session)
	require.True(t, session.Active)
}
