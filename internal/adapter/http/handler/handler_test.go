package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintech-ledger/internal/adapter/http/dto"
	"fintech-ledger/internal/adapter/http/middleware"
	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/internal/core/ports/mocks"
	"fintech-ledger/pkg/apperror"
	"fintech-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- helpers ---

func newTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func withMember(c *gin.Context, id uuid.UUID) {
	c.Set(middleware.CtxMemberID, id)
}

func withNumber(c *gin.Context, number string) {
	c.Params = gin.Params{{Key: "number", Value: number}}
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %s", w.Body.String())
	return data
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) (items []interface{}, page, count int) {
	t.Helper()
	var resp struct {
		Data  []interface{} `json:"data"`
		Page  int           `json:"page"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data, "page data must be a JSON array: %s", w.Body.String())
	return resp.Data, resp.Page, resp.Count
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ErrorCode
}

var handlerNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

// --- Member Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMember := mocks.NewMockMemberService(ctrl)
	h := NewMemberHandler(mockMember)

	memberID := uuid.New()
	mockMember.EXPECT().Register(gomock.Any(), ports.RegisterRequest{
		Email:    "kim@example.com",
		Password: "password123",
		Name:     "Kim",
	}).Return(&domain.Member{ID: memberID, Email: "kim@example.com", Name: "Kim", CreatedAt: handlerNow}, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/members/register", dto.RegisterRequest{
		Email:    "kim@example.com",
		Password: "password123",
		Name:     "Kim",
	})
	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, memberID.String(), data["id"])
	assert.Equal(t, "Kim", data["name"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewMemberHandler(mocks.NewMockMemberService(ctrl))

	c, w := newTestContext(http.MethodPost, "/api/v1/members/register", map[string]string{"email": "nope"})
	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL_001", errorCode(t, w))
}

func TestRegister_EmailExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMember := mocks.NewMockMemberService(ctrl)
	h := NewMemberHandler(mockMember)
	mockMember.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrEmailExists())

	c, w := newTestContext(http.MethodPost, "/api/v1/members/register", dto.RegisterRequest{
		Email: "kim@example.com", Password: "password123", Name: "Kim",
	})
	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AUTH_002", errorCode(t, w))
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMember := mocks.NewMockMemberService(ctrl)
	h := NewMemberHandler(mockMember)

	expiry := handlerNow.Add(24 * time.Hour)
	mockMember.EXPECT().Login(gomock.Any(), "kim@example.com", "password123").Return("jwt-token", expiry, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/members/login", dto.LoginRequest{
		Email: "kim@example.com", Password: "password123",
	})
	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "jwt-token", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMember := mocks.NewMockMemberService(ctrl)
	h := NewMemberHandler(mockMember)
	mockMember.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return("", time.Time{}, apperror.ErrInvalidCredentials())

	c, w := newTestContext(http.MethodPost, "/api/v1/members/login", dto.LoginRequest{
		Email: "kim@example.com", Password: "wrong-password",
	})
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_001", errorCode(t, w))
}

func TestMe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMember := mocks.NewMockMemberService(ctrl)
	h := NewMemberHandler(mockMember)

	memberID := uuid.New()
	mockMember.EXPECT().GetProfile(gomock.Any(), memberID).Return(&domain.Member{ID: memberID, Email: "kim@example.com", Name: "Kim"}, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/members/me", nil)
	withMember(c, memberID)
	h.Me(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kim@example.com", decodeData(t, w)["email"])
}

func TestMe_NoMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewMemberHandler(mocks.NewMockMemberService(ctrl))

	c, w := newTestContext(http.MethodGet, "/api/v1/members/me", nil)
	h.Me(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Transfer Handler Tests ---

func TestTransfer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransfer := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockTransfer)

	mockTransfer.EXPECT().Transfer(gomock.Any(), ports.TransferRequest{
		FromAccountNumber: "100200300400",
		ToAccountNumber:   "500600700800",
		Amount:            30_000,
		FromPin:           "1234",
	}).Return(&domain.Transaction{
		ID:                    uuid.New(),
		TransactionType:       domain.TransactionTypeTransferSend,
		AccountNumber:         "100200300400",
		Amount:                30_000,
		ResultingBalance:      70_000,
		SenderAccountNumber:   "100200300400",
		ReceiverAccountNumber: "500600700800",
		SenderName:            "Kim",
		ReceiverName:          "Lee",
		CreatedAt:             handlerNow,
	}, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/transfers", dto.TransferRequest{
		FromAccountNumber: "100200300400",
		ToAccountNumber:   "500600700800",
		Amount:            30_000,
		Pin:               "1234",
	})
	h.Transfer(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "TRANSFER_SEND", data["transaction_type"])
	assert.Equal(t, float64(70_000), data["resulting_balance"])
	assert.Equal(t, "Lee", data["receiver_name"])
}

func TestTransfer_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewTransferHandler(mocks.NewMockTransferService(ctrl))

	c, w := newTestContext(http.MethodPost, "/api/v1/transfers", dto.TransferRequest{
		FromAccountNumber: "100200300400",
		ToAccountNumber:   "500600700800",
		Amount:            -1,
		Pin:               "1234",
	})
	h.Transfer(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ACC_003", errorCode(t, w))
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransfer := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockTransfer)
	mockTransfer.EXPECT().Transfer(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientBalance())

	c, w := newTestContext(http.MethodPost, "/api/v1/transfers", dto.TransferRequest{
		FromAccountNumber: "100200300400",
		ToAccountNumber:   "500600700800",
		Amount:            1_000_000,
		Pin:               "1234",
	})
	h.Transfer(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ACC_002", errorCode(t, w))
}

// --- Health & Swagger ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(context.Context) error { return s.err }
func (s stubChecker) Name() string { return s.name }

func TestHealthCheck(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/health", nil)
	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/health", nil)
	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis", err: errors.New("dial tcp: refused")})(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	assert.Equal(t, "unhealthy", deps["redis"].(map[string]interface{})["status"])
	assert.Equal(t, "healthy", deps["postgresql"].(map[string]interface{})["status"])
}

func TestSwaggerUI(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/swagger", nil)
	SwaggerUI(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "/swagger/spec")
}

func TestSwaggerSpec(t *testing.T) {
	defer SetSwaggerSpec(nil)

	SetSwaggerSpec(nil)
	c, w := newTestContext(http.MethodGet, "/swagger/spec", nil)
	SwaggerSpec(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	SetSwaggerSpec([]byte("openapi: 3.0.3\ninfo:\n  title: Test"))
	c, w = newTestContext(http.MethodGet, "/swagger/spec", nil)
	SwaggerSpec(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi")
}
