package handler

import (
	"fintech-ledger/internal/adapter/http/dto"
	"fintech-ledger/internal/adapter/http/middleware"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/pkg/apperror"
	"fintech-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// MemberHandler handles registration, login and profile endpoints.
type MemberHandler struct {
	memberSvc ports.MemberService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(memberSvc ports.MemberService) *MemberHandler {
	return &MemberHandler{memberSvc: memberSvc}
}

// Register handles POST /api/v1/members/register.
func (h *MemberHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	member, err := h.memberSvc.Register(c.Request.Context(), ports.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toMemberResponse(member))
}

// Login handles POST /api/v1/members/login.
func (h *MemberHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	token, expiry, err := h.memberSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.LoginResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// Me handles GET /api/v1/members/me.
func (h *MemberHandler) Me(c *gin.Context) {
	memberID, ok := middleware.MemberID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	member, err := h.memberSvc.GetProfile(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toMemberResponse(member))
}
