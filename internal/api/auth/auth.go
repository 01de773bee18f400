package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"algotracker/internal/account"
	"algotracker/internal/api/respond"
	"algotracker/internal/model"

	"github.com/gin-gonic/gin"
)

// AccountService is the account flow the handlers drive.
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput, role string) (*model.Account, error)
	Login(ctx context.Context, role, email, password string) (*account.LoginResult, error)
	RequestPasswordReset(ctx context.Context, role, email string) (*account.ResetRequest, error)
	VerifyOTP(ctx context.Context, id, code string) error
	ResetPassword(ctx context.Context, id, newPassword, code string) error
	CookiePrefix(role string) string
}

// Handler serves the account endpoints of one role.
type Handler struct {
	svc     AccountService
	role    string
	cookies CookiePolicy
	logger  *slog.Logger
}

// NewHandler creates the handler for role.
func NewHandler(svc AccountService, role string, cookies CookiePolicy, logger *slog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		role:    role,
		cookies: cookies,
		logger:  logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	OTP string `json:"otp"`
}

type resetRequest struct {
	NewPassword string `json:"newPassword"`
	OTP         string `json:"otp"`
}

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	acc, err := h.svc.Register(c.Request.Context(), account.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}, h.role)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusCreated, h.label()+" created successfully", gin.H{
		h.role: gin.H{
			"id":       acc.ID,
			"email":    acc.Email,
			"fullName": acc.Name,
			"role":     acc.Role,
		},
	})
}

// Login checks credentials and sets the access and role token cookies.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.BadRequest(c, "Email and password are required")
		return
	}
	res, err := h.svc.Login(c.Request.Context(), h.role, req.Email, req.Password)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	h.cookies.Set(c, AccessCookieName, res.AccessToken)
	h.cookies.Set(c, res.CookieKey, res.RoleToken)

	respond.OK(c, http.StatusOK, "Login successful", gin.H{
		"token": res.AccessToken,
		h.role: gin.H{
			"id":        res.Account.ID,
			"name":      res.Account.Name,
			"email":     res.Account.Email,
			"role":      res.Account.Role,
			"createdAt": res.Account.CreatedAt,
		},
	})
}

// Logout expires the access token cookie and every role-token cookie of
// this role.
func (h *Handler) Logout(c *gin.Context) {
	h.cookies.Clear(c, AccessCookieName)
	if prefix := h.svc.CookiePrefix(h.role); prefix != "" {
		for _, ck := range c.Request.Cookies() {
			if strings.HasPrefix(ck.Name, prefix) {
				h.cookies.Clear(c, ck.Name)
			}
		}
	}
	respond.OK(c, http.StatusOK, "Logged out", nil)
}

// SendOTP issues a reset code and emails it.
func (h *Handler) SendOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	res, err := h.svc.RequestPasswordReset(c.Request.Context(), h.role, req.Email)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, "OTP sent successfully", gin.H{
		"data": gin.H{
			h.role + "Id": res.AccountID,
			"redirectUrl": res.RedirectURL,
		},
	})
}

// VerifyOTP checks a reset code without consuming it.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	id := c.Param("id")
	if err := h.svc.VerifyOTP(c.Request.Context(), id, req.OTP); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, "OTP verified successfully", gin.H{
		"data": gin.H{h.role + "Id": id},
	})
}

// ResetPassword sets a new password using the pending reset code.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), c.Param("id"), req.NewPassword, req.OTP); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, "Password reset successfully", nil)
}

func (h *Handler) label() string {
	if h.role == "" {
		return "Account"
	}
	return strings.ToUpper(h.role[:1]) + h.role[1:]
}
