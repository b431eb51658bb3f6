package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuditLog_DepositSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	memberID := uuid.New()

	var got *domain.AuditLog
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *domain.AuditLog) {
			got = entry
		},
	)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(CtxMemberID, memberID) })
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/accounts/:number/deposit", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/100200300400/deposit", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, domain.AuditActionDeposit, got.Action)
	assert.Equal(t, "account", got.ResourceType)
	assert.Equal(t, "100200300400", got.ResourceID)
	require.NotNil(t, got.MemberID)
	assert.Equal(t, memberID, *got.MemberID)
	assert.Contains(t, got.Details, `"status":200`)
}

func TestAuditLog_SkipsGET(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.GET("/api/v1/accounts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"accounts": []string{}})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditLog_SkipsFailedRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/transfers", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/transfers", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMapRouteToAction(t *testing.T) {
	tests := []struct {
		method   string
		route    string
		action   domain.AuditAction
		resource string
	}{
		{"POST", "/api/v1/members/register", domain.AuditActionRegister, "member"},
		{"POST", "/api/v1/members/login", domain.AuditActionLogin, "session"},
		{"POST", "/api/v1/accounts", domain.AuditActionOpenAccount, "account"},
		{"DELETE", "/api/v1/accounts/:number", domain.AuditActionCloseAccount, "account"},
		{"POST", "/api/v1/accounts/:number/withdraw", domain.AuditActionWithdraw, "account"},
		{"POST", "/api/v1/transfers", domain.AuditActionTransfer, "transaction"},
		{"POST", "/api/v1/cards", domain.AuditActionIssueCard, "card"},
		{"POST", "/api/v1/cards/:number/charge", domain.AuditActionChargeCard, "card"},
		{"POST", "/api/v1/cards/:number/payments", domain.AuditActionPayCard, "card"},
		{"DELETE", "/api/v1/cards/:number", domain.AuditActionDeleteCard, "card"},
		{"POST", "/api/v1/accounts/:number/transactions", "", ""},
		{"PUT", "/api/v1/accounts", "", ""},
	}

	for _, tc := range tests {
		action, resource := mapRouteToAction(tc.method, tc.route)
		assert.Equal(t, tc.action, action, "method=%s route=%s", tc.method, tc.route)
		assert.Equal(t, tc.resource, resource, "method=%s route=%s", tc.method, tc.route)
	}
}
