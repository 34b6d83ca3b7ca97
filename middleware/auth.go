package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"assignment-management-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	RoleID int    `json:"role_id"`
	jwt.RegisteredClaims
}

// UserLookup loads the account behind a token.
type UserLookup interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

const currentUserKey = "currentUser"

// AuthMiddleware validates JWT token
func AuthMiddleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get token from header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		// Check Bearer prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		// Parse token
		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Get claims
		claims, ok := token.Claims.(*Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		// Check if user still exists
		user, err := users.GetUser(c.Request.Context(), claims.UserID)
		if err != nil || user.DeletedAt != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		// Role comes from the account, not the token, so demotions apply immediately
		c.Set("userID", user.ID)
		c.Set("email", user.Email)
		c.Set("roleID", user.RoleID)
		c.Set(currentUserKey, *user)

		c.Next()
	}
}

// CurrentUser returns the account set by AuthMiddleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// SetCurrentUser stores user on the request context as AuthMiddleware does.
func SetCurrentUser(c *gin.Context, user models.User) {
	c.Set("userID", user.ID)
	c.Set("email", user.Email)
	c.Set("roleID", user.RoleID)
	c.Set(currentUserKey, user)
}

// RequireRole checks if user has specific role
func RequireRole(roleIDs ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoleID, exists := c.Get("roleID")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Role not found"})
			c.Abort()
			return
		}

		// Check if user's role is in allowed roles
		userRole := userRoleID.(int)
		allowed := false
		for _, roleID := range roleIDs {
			if userRole == roleID {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireTAPrivileges lets teaching assistants and everyone above them through.
func RequireTAPrivileges() gin.HandlerFunc {
	return RequireRole(
		models.RoleTeachingAssistant,
		models.RoleInstructor,
		models.RoleAdministrator,
		models.RoleSuperAdministrator,
	)
}
