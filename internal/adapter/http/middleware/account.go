package middleware

import (
	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"
	"banking-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ResolveAccount loads the caller's account. Must run after JWTAuth.
func ResolveAccount(ledger ports.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		account, err := ledger.GetAccount(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxAccount, account)
		c.Next()
	}
}

// RequireActiveAccount rejects requests against a suspended account.
// Must run after ResolveAccount.
func RequireActiveAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := Account(c)
		if !ok {
			response.Error(c, apperror.ErrAccountNotFound())
			c.Abort()
			return
		}
		if !account.IsActive {
			response.Error(c, apperror.ErrAccountSuspended())
			c.Abort()
			return
		}
		c.Next()
	}
}

// Account returns the account stored by ResolveAccount.
func Account(c *gin.Context) (*domain.Account, bool) {
	v, ok := c.Get(CtxAccount)
	if !ok {
		return nil, false
	}
	a, ok := v.(*domain.Account)
	return a, ok && a != nil
}
