package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/config"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/credits"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ContextUserKey stores the authenticated user on the gin context.
const ContextUserKey = "auth_user"

// CurrentUser returns the authenticated user stored on the context.
func CurrentUser(c *gin.Context) *models.User {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// AuthHandler serves registration and login endpoints.
type AuthHandler struct {
	db      *gorm.DB
	credits *credits.Service
	jwtCfg  config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, creditSvc *credits.Service, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, credits: creditSvc, jwtCfg: jwtCfg}
}

// registerRequest defines the request body for registration.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account. New FREE accounts receive the initial
// credit grant atomically with the insert.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}
	password := strings.TrimSpace(body.Password)
	if password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing password"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	user := models.User{
		Email:    email,
		Password: hash,
		Role:     models.RoleUser,
		Plan:     models.PlanFree,
	}
	if errCreate := h.credits.CreateUser(c.Request.Context(), &user); errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	token, errToken := security.IssueUserToken(h.jwtCfg.Secret, user.ID, string(user.Role), h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      user.ID,
		"email":   user.Email,
		"plan":    user.Plan,
		"credits": user.Credits,
		"token":   token,
	})
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an account and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load user failed"})
		return
	}

	if !security.CheckPassword(user.Password, strings.TrimSpace(body.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, errToken := security.IssueUserToken(h.jwtCfg.Secret, user.ID, string(user.Role), h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"plan":    user.Plan,
		"credits": user.Credits,
		"token":   token,
	})
}
