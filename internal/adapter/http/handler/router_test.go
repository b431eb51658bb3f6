package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintech-ledger/internal/adapter/metrics"
	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

type routerMocks struct {
	member  *mocks.MockMemberService
	account *mocks.MockAccountService
	token   *mocks.MockTokenService
	audit   *mocks.MockAuditService
}

func setupTestRouter(t *testing.T, ctrl *gomock.Controller, m *metrics.Collector) (*routerMocks, http.Handler) {
	t.Helper()
	rm := &routerMocks{
		member:  mocks.NewMockMemberService(ctrl),
		account: mocks.NewMockAccountService(ctrl),
		token:   mocks.NewMockTokenService(ctrl),
		audit:   mocks.NewMockAuditService(ctrl),
	}
	r := SetupRouter(RouterDeps{
		MemberSvc:   rm.member,
		AccountSvc:  rm.account,
		TransferSvc: mocks.NewMockTransferService(ctrl),
		CardSvc:     mocks.NewMockCardService(ctrl),
		HistorySvc:  mocks.NewMockHistoryService(ctrl),
		TokenSvc:    rm.token,
		AuditSvc:    rm.audit,
		Metrics:     m,
		Logger:      zerolog.Nop(),
	})
	return rm, r
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, r := setupTestRouter(t, ctrl, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_003", errorCode(t, w))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRouter_AuthenticatedListAndAudit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rm, r := setupTestRouter(t, ctrl, nil)
	memberID := uuid.New()

	rm.token.EXPECT().Validate("good-token").Return(&ports.TokenClaims{MemberID: memberID, Email: "kim@example.com"}, nil).Times(2)
	rm.account.EXPECT().ListAccounts(gomock.Any(), memberID, 0).Return([]domain.Account{}, nil)
	rm.account.EXPECT().CreateAccount(gomock.Any(), memberID, "1234").Return(&domain.Account{AccountNumber: "100200300400"}, nil)
	rm.audit.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, entry *domain.AuditLog) {
		assert.Equal(t, domain.AuditActionOpenAccount, entry.Action)
		assert.Equal(t, memberID, *entry.MemberID)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(`{"pin":"1234"}`))
	req.Header.Set("Authorization", "Bearer good-token")
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, r := setupTestRouter(t, ctrl, metrics.New("router_test"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `router_test_http_requests_total{endpoint="/health",method="GET",status="200"} 1`)
}

func TestRouter_MetricsDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, r := setupTestRouter(t, ctrl, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
