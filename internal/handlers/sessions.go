package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/charlesng35/wifipass/internal/services"
	appErrors "github.com/charlesng35/wifipass/pkg/errors"
	"github.com/charlesng35/wifipass/pkg/response"
)

const (
	defaultQRCodeSize = 256
	maxQRCodeSize     = 1024
)

// SessionHandler exposes the customer facing access session endpoints.
type SessionHandler struct {
	sessions *services.SessionManager
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(sessions *services.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionRequest struct {
	PlanID   string `json:"plan_id" validate:"required,max=64"`
	DeviceID string `json:"device_id" validate:"max=128"`
}

type connectSessionRequest struct {
	DeviceID string `json:"device_id" validate:"required,max=128"`
}

// Create issues an access session for a plan without a payment (operator or kiosk flow).
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	session, err := h.sessions.CreateSession(c.Request.Context(), req.PlanID, req.DeviceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, services.NewSessionView(session, h.sessions.Now()))
}

// Get returns the countdown view of a session.
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Lookup(c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, services.NewSessionView(session, h.sessions.Now()))
}

// Connect is the login screen: it re-validates an access code and binds it to the caller's device.
func (h *SessionHandler) Connect(c *gin.Context) {
	var req connectSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	session, err := h.sessions.BindDevice(c.Param("token"), req.DeviceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, services.NewSessionView(session, h.sessions.Now()))
}

// Disconnect deactivates a session. Disconnecting an inactive session answers 409 with the session.
func (h *SessionHandler) Disconnect(c *gin.Context) {
	session, err := h.sessions.Disconnect(c.Param("token"))
	if errors.Is(err, services.ErrSessionAlreadyInactive) {
		response.ErrorWithData(c, errAlreadyInactive, services.NewSessionView(session, h.sessions.Now()))
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, services.NewSessionView(session, h.sessions.Now()))
}

// Refresh reactivates a disconnected session that has not reached its end time.
func (h *SessionHandler) Refresh(c *gin.Context) {
	session, err := h.sessions.Refresh(c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, services.NewSessionView(session, h.sessions.Now()))
}

// QRCode renders the access code as a PNG so it can be scanned on the login screen.
func (h *SessionHandler) QRCode(c *gin.Context) {
	session, err := h.sessions.Lookup(c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	size := parseIntQuery(c, "size", defaultQRCodeSize)
	if size <= 0 || size > maxQRCodeSize {
		response.Error(c, appErrors.NewBadRequest("size must be between 1 and 1024"))
		return
	}

	png, err := qrcode.Encode(strings.ToUpper(session.Token), qrcode.Medium, size)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
