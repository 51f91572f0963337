package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records every write request after it has been answered,
// successful or not, so rejected money movements leave a trace too.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapPathToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var userID *uuid.UUID
		if id, ok := UserID(c); ok {
			userID = &id
		}
		var resourceID string
		if account, ok := Account(c); ok {
			resourceID = account.ID.String()
		}

		status := c.Writer.Status()
		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			StatusCode:   status,
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch {
	case path == "/api/v1/auth/register" && method == http.MethodPost:
		return domain.AuditActionRegister, "user"
	case path == "/api/v1/auth/login" && method == http.MethodPost:
		return domain.AuditActionLogin, "session"
	case path == "/api/v1/accounts" && method == http.MethodPost:
		return domain.AuditActionOpenAccount, "account"
	case path == "/api/v1/accounts/me" && method == http.MethodDelete:
		return domain.AuditActionCloseAccount, "account"
	case path == "/api/v1/accounts/me/status" && method == http.MethodPost:
		return domain.AuditActionSetStatus, "account"
	case path == "/api/v1/accounts/me/deposit" && method == http.MethodPost:
		return domain.AuditActionDeposit, "transaction"
	case path == "/api/v1/accounts/me/withdraw" && method == http.MethodPost:
		return domain.AuditActionWithdraw, "transaction"
	case path == "/api/v1/accounts/me/transfer" && method == http.MethodPost:
		return domain.AuditActionTransfer, "transaction"
	case path == "/api/v1/loans" && method == http.MethodPost:
		return domain.AuditActionOriginateLoan, "loan"
	}
	return "", ""
}
