// api/handlers/auth_handlers.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"aadinath/api/middleware"
	"aadinath/api/models"
	"aadinath/api/store"
)

// UserRepository is satisfied by store.UserStore and store.MemoryUserStore.
type UserRepository interface {
	CreateUser(ctx context.Context, email string, hashedPassword []byte) (*models.AdminUser, error)
	GetUserByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}

// TokenGenerator is satisfied by utils.TokenIssuer.
type TokenGenerator interface {
	GenerateJWT(user *models.AdminUser) (string, error)
}

type AuthHandlers struct {
	users        UserRepository
	tokens       TokenGenerator
	cookieMaxAge int
	secure       bool
	log          *zap.SugaredLogger
}

func NewAuthHandlers(users UserRepository, tokens TokenGenerator, cookieMaxAge int, secure bool, log *zap.SugaredLogger) *AuthHandlers {
	return &AuthHandlers{users: users, tokens: tokens, cookieMaxAge: cookieMaxAge, secure: secure, log: log}
}

// Signup registers another admin. It is mounted behind AuthRequired.
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.Email = models.NormalizeEmail(req.Email)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Errorf("Failed to hash password for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
			return
		}
		h.log.Errorf("Failed to create user %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	h.log.Infof("Admin registered: ID=%d, Email=%s", user.ID, user.Email)
	c.JSON(http.StatusCreated, models.AuthResponse{Message: "User registered successfully", UserEmail: user.Email})
}

// Login handles user authentication and JWT token creation.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.Email = models.NormalizeEmail(req.Email)

	user, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Errorf("Login lookup failed for %s: %v", req.Email, err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(req.Password)); err != nil {
		h.log.Infof("Login failed for %s: password mismatch", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := h.tokens.GenerateJWT(user)
	if err != nil {
		h.log.Errorf("Failed to generate JWT for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, tokenString, h.cookieMaxAge, "/", "", h.secure, true)

	h.log.Infof("Admin logged in: ID=%d, Email=%s", user.ID, user.Email)
	c.JSON(http.StatusOK, models.AuthResponse{Message: "Login successful", UserEmail: user.Email, Token: tokenString})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// HealthCheck reports liveness for load balancers.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
