package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic-api/internal/service"
)

// UserHandler mantiene dependencias para endpoints de cuentas.
type UserHandler struct {
	logger    *zap.Logger
	userServ  *service.UserService
	tokenServ *service.TokenService
}

func NewUserHandler(logger *zap.Logger, userServ *service.UserService, tokenServ *service.TokenService) *UserHandler {
	return &UserHandler{
		logger:    logger,
		userServ:  userServ,
		tokenServ: tokenServ,
	}
}

type requiredField struct {
	name  string
	value string
}

// missingField devuelve el primer campo requerido que llegó vacío.
func missingField(fields ...requiredField) (string, bool) {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name, true
		}
	}
	return "", false
}

// Signup maneja POST /signup.
func (h *UserHandler) Signup(c *gin.Context) {
	var req struct {
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		Role        string `json:"role"`
		DateOfBirth string `json:"dob"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if field, missing := missingField(
		requiredField{"firstName", req.FirstName},
		requiredField{"lastName", req.LastName},
		requiredField{"email", req.Email},
		requiredField{"password", req.Password},
		requiredField{"role", req.Role},
		requiredField{"dob", req.DateOfBirth},
	); missing {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " cannot be blank"})
		return
	}

	_, err := h.userServ.Signup(c.Request.Context(), service.SignupInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
			return
		}
		h.logger.Error("signup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign up"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Signup successful. Check your email for confirmation code."})
}

// ConfirmEmail maneja POST /confirm_email.
func (h *UserHandler) ConfirmEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid confirm request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if field, missing := missingField(
		requiredField{"email", req.Email},
		requiredField{"code", req.Code},
	); missing {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " cannot be blank"})
		return
	}

	if err := h.userServ.ConfirmEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, service.ErrInvalidConfirmation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code or email"})
			return
		}
		h.logger.Error("confirm email failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not confirm email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email confirmed successfully"})
}

// ResendCode maneja POST /resend_code.
func (h *UserHandler) ResendCode(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resend request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if field, missing := missingField(requiredField{"email", req.Email}); missing {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " cannot be blank"})
		return
	}

	if err := h.userServ.ResendCode(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrAlreadyConfirmed):
			c.JSON(http.StatusConflict, gin.H{"error": "email already confirmed"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		default:
			h.logger.Error("resend code failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resend code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "code_sent"})
}

// Login maneja POST /login.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if field, missing := missingField(
		requiredField{"email", req.Email},
		requiredField{"password", req.Password},
	); missing {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " cannot be blank"})
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		case errors.Is(err, service.ErrEmailNotConfirmed):
			c.JSON(http.StatusForbidden, gin.H{"error": "email not confirmed"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		}
		return
	}

	token, err := h.tokenServ.Issue(user.Email)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Profile maneja GET /protected. Requiere TokenAuthMiddleware.
func (h *UserHandler) Profile(c *gin.Context) {
	subject, ok := GetAuthSubject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	user, err := h.userServ.Profile(c.Request.Context(), subject)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("profile lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}

	// los campos secretos llevan json:"-" y nunca se serializan
	c.JSON(http.StatusOK, user)
}
