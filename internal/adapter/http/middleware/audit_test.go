package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuditLog_Deposit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	userID := uuid.New()
	account := &domain.Account{ID: uuid.New(), IsActive: true}

	done := make(chan struct{})
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) {
			assert.Equal(t, domain.AuditActionDeposit, log.Action)
			assert.Equal(t, "transaction", log.ResourceType)
			assert.Equal(t, account.ID.String(), log.ResourceID)
			assert.Equal(t, userID, *log.UserID)
			assert.Equal(t, http.StatusOK, log.StatusCode)
			close(done)
		},
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/accounts/me/deposit", func(c *gin.Context) {
		c.Set(CtxUserID, userID)
		c.Set(CtxAccount, account)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/accounts/me/deposit", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("audit not called")
	}
}

func TestAuditLog_RecordsRejectedWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(func(_ context.Context, log *domain.AuditLog) {
		assert.Equal(t, domain.AuditActionWithdraw, log.Action)
		assert.Equal(t, http.StatusUnprocessableEntity, log.StatusCode)
		assert.Nil(t, log.UserID)
	})

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/accounts/me/withdraw", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error_code": "LED_001"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/accounts/me/withdraw", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAuditLog_SkipsReadsAndUnknownPaths(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	// No expectations: Log must not be called.

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.GET("/api/v1/accounts/me/balance", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/v1/unknown", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/v1/accounts/me/balance", nil),
		httptest.NewRequest(http.MethodPost, "/api/v1/unknown", nil),
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestMapPathToAction(t *testing.T) {
	tests := []struct {
		path         string
		method       string
		wantAction   domain.AuditAction
		wantResource string
	}{
		{"/api/v1/auth/register", "POST", domain.AuditActionRegister, "user"},
		{"/api/v1/auth/login", "POST", domain.AuditActionLogin, "session"},
		{"/api/v1/accounts", "POST", domain.AuditActionOpenAccount, "account"},
		{"/api/v1/accounts/me", "DELETE", domain.AuditActionCloseAccount, "account"},
		{"/api/v1/accounts/me/status", "POST", domain.AuditActionSetStatus, "account"},
		{"/api/v1/accounts/me/deposit", "POST", domain.AuditActionDeposit, "transaction"},
		{"/api/v1/accounts/me/withdraw", "POST", domain.AuditActionWithdraw, "transaction"},
		{"/api/v1/accounts/me/transfer", "POST", domain.AuditActionTransfer, "transaction"},
		{"/api/v1/loans", "POST", domain.AuditActionOriginateLoan, "loan"},
		{"/api/v1/loans", "GET", "", ""},
		{"/api/v1/accounts/me", "GET", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			action, resource := mapPathToAction(tt.path, tt.method)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantResource, resource)
		})
	}
}
