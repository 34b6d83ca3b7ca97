package controllers

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"assignment-management-api/middleware"
	"assignment-management-api/models"
	"assignment-management-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserAccounts is the account lookup used by login.
type UserAccounts interface {
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
}

type AuthController struct {
	users UserAccounts
}

func NewAuthController(users UserAccounts) *AuthController {
	return &AuthController{users: users}
}

type LoginRequest struct {
	// Login is the user name or email address.
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	Message string      `json:"message"`
}

// Login handles user authentication
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest

	// Bind request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	login := utils.SanitizeInput(req.Login)
	if strings.Contains(login, "@") && !utils.ValidateEmail(login) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	user, err := ac.users.FindUserByLogin(c.Request.Context(), login)
	if err != nil || user.DeletedAt != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid login or password"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.CryptedPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid login or password"})
		return
	}

	// Generate JWT token
	token, err := generateToken(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:   token,
		User:    *user,
		Message: "Login successful",
	})
}

// GetProfile returns current user profile
func (ac *AuthController) GetProfile(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":              user,
		"timezone_missing":  user.Timezone() == "",
		"has_ta_privileges": user.HasTAPrivileges(),
	})
}

// generateToken creates JWT token
func generateToken(user models.User) (string, error) {
	// Get expiration hours from env
	expireHours, err := strconv.Atoi(os.Getenv("JWT_EXPIRE_HOURS"))
	if err != nil || expireHours <= 0 {
		expireHours = 24 // default 24 hours
	}

	claims := middleware.Claims{
		UserID: user.ID,
		Email:  user.Email,
		RoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
