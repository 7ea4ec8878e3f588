package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/middleware"
	"scholarcrm/internal/pkg/response"
)

// Handler handles account HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates user handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !response.BindJSON(c, &req) {
		return
	}

	u, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, u)
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !response.BindJSON(c, &req) {
		return
	}

	token, u, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, LoginResponse{Token: token, User: u})
}

// Me handles GET /api/v1/me
func (h *Handler) Me(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), actor.UID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, u)
}

// CreateStaff handles POST /api/v1/users
func (h *Handler) CreateStaff(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var req CreateStaffRequest
	if !response.BindJSON(c, &req) {
		return
	}

	u, err := h.service.CreateStaff(c.Request.Context(), actor, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, u)
}

// UpdateCommissionRate handles PATCH /api/v1/users/:id/commission-rate
func (h *Handler) UpdateCommissionRate(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var req UpdateCommissionRateRequest
	if !response.BindJSON(c, &req) {
		return
	}

	u, err := h.service.UpdateCommissionRate(c.Request.Context(), actor, c.Param("id"), *req.CommissionRate)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, u)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmailExists):
		response.Error(c, http.StatusConflict, "EMAIL_EXISTS", err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, ErrInvalidReferralCode):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_REFERRAL_CODE", err.Error())
	case errors.Is(err, ErrNotPartner):
		response.Error(c, http.StatusUnprocessableEntity, "NOT_PARTNER", err.Error())
	default:
		response.FromError(c, err)
	}
}
