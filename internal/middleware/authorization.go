package middleware

import (
	"errors"
	"net/http"
	"strings"

	"referral_app/internal/service"
	"referral_app/pkg/auth"
	"referral_app/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AccountIDKey = "accountID"
	EmailKey     = "email"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type Authorization struct {
	accountService service.AccountServiceI
	tokens         TokenVerifier
}

func NewAuthorization(accountService service.AccountServiceI, tokens TokenVerifier) *Authorization {
	return &Authorization{
		accountService: accountService,
		tokens:         tokens,
	}
}

// RequireAccount accepts "Authorization: Bearer <token>" and stores the
// authenticated account id and email in the context.
func (a *Authorization) RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		claims, err := a.tokens.Verify(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			if errors.Is(err, auth.ErrTokenMissing) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"message": "No token provided",
				})
				return
			}

			log.Debug("rejected session token",
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			return
		}

		exists, err := a.accountService.Exists(c.Request.Context(), claims.AccountID)
		if err != nil {
			log.Error("failed to check account",
				zap.String("account_id", claims.AccountID.String()),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error",
			})
			return
		}
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(AccountIDKey, claims.AccountID)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AccountID returns the account authenticated by RequireAccount.
func AccountID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(AccountIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
