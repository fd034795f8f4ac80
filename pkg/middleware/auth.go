package middleware

import (
	"net/http"
	"strings"
	"time"

	"LifeLine/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleHospital = "hospital"
)

// Claims is the bearer token payload. Subject is the user id. Role is empty
// for patients; hospital tokens carry the hospital they act for.
type Claims struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	HospitalID uint   `json:"hospitalId,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for an ordinary user.
func IssueToken(secret, userID, name, email string, ttl time.Duration) (string, error) {
	return IssueClaims(secret, Claims{Name: name, Email: email}, userID, ttl)
}

// IssueClaims signs claims for subject, filling the registered fields.
func IssueClaims(secret string, claims Claims, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies the HMAC signature and expiry of a token.
func ParseToken(secret, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}
	return claims, nil
}

// AuthRequired 校验 Bearer token，并把用户 id 写入上下文
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, err := ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(models.UserField, claims.Subject)
		c.Set(models.UserNameField, claims.Name)
		c.Set(models.UserEmailField, claims.Email)
		c.Set(models.UserRoleField, claims.Role)
		if claims.Role == RoleHospital {
			c.Set(models.UserHospitalField, claims.HospitalID)
		}
		c.Next()
	}
}

// RequireRole 只放行指定角色，需挂在 AuthRequired 之后
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.CurrentUserRole(c)
		for _, r := range roles {
			if role != "" && role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// InjectDB makes db available to handlers via models.GetDB.
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(models.DbField, db)
		c.Next()
	}
}
