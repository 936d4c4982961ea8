package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/handlers"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PaymentHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockPayments *MockPaymentService
	userID       string
	token        string
}

func (suite *PaymentHandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(handlers.RegisterValidators())
}

func (suite *PaymentHandlerTestSuite) SetupTest() {
	suite.mockPayments = new(MockPaymentService)
	suite.userID = uuid.NewString()

	token, err := generateTestToken(suite.userID, testJWTSecret)
	suite.Require().NoError(err)
	suite.token = token

	suite.router = gin.New()
	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(testJWTSecret, testIssuer))
	handlers.RegisterPaymentRoutes(v1, suite.mockPayments)
}

func (suite *PaymentHandlerTestSuite) TearDownTest() {
	suite.mockPayments.AssertExpectations(suite.T())
}

func TestPaymentHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

func (suite *PaymentHandlerTestSuite) request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *PaymentHandlerTestSuite) TestProcessPayment_Success() {
	resp := &dto.ProcessPaymentResponse{
		Breakdown: domain.PaymentBreakdown{
			FromCredit: decimal.NewFromInt(300),
			FromBank:   decimal.NewFromInt(700),
			Total:      decimal.NewFromInt(1000),
		},
		Description: "PO-7 paid 300.00 from supplier credit and 700.00 from bank",
		Drafts: []dto.PaymentDraftResponse{
			{DraftID: "d1", Source: domain.SourceWallet, Status: domain.DraftStatusPendingApproval, Amount: decimal.NewFromInt(300)},
			{DraftID: "d2", Source: domain.SourceBank, Status: domain.DraftStatusPendingApproval, Amount: decimal.NewFromInt(700)},
		},
	}
	suite.mockPayments.On("ProcessPayment", mock.Anything, mock.MatchedBy(func(req dto.ProcessPaymentRequest) bool {
		return req.PurchaseOrderID == "po-7" && req.TotalDue.Equal(decimal.NewFromInt(1000)) && req.BankAccountID == "bank-1"
	}), suite.userID).Return(resp, nil).Once()

	w := suite.request(http.MethodPost, "/api/v1/payments", map[string]interface{}{
		"purchase_order_id": "po-7",
		"reference":         "PO-7",
		"supplier_id":       "sup-1",
		"total_due":         "1000.00",
		"bank_account_id":   "bank-1",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var got dto.ProcessPaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Len(got.Drafts, 2)
	suite.True(got.Breakdown.Total.Equal(decimal.NewFromInt(1000)))
}

func (suite *PaymentHandlerTestSuite) TestProcessPayment_MissingChartLink() {
	suite.mockPayments.On("ProcessPayment", mock.Anything, mock.Anything, suite.userID).
		Return(nil, apperrors.MissingChartOfAccountLinkError{BankAccountID: "bank-1"}).Once()

	w := suite.request(http.MethodPost, "/api/v1/payments", map[string]interface{}{
		"purchase_order_id": "po-7",
		"reference":         "PO-7",
		"supplier_id":       "sup-1",
		"total_due":         "10",
		"bank_account_id":   "bank-1",
	})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestProcessPayment_RequiresReference() {
	w := suite.request(http.MethodPost, "/api/v1/payments", map[string]interface{}{
		"purchase_order_id": "po-7",
		"supplier_id":       "sup-1",
		"total_due":         "10",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestPreviewPayment() {
	preview := &dto.PaymentPreviewResponse{
		Breakdown: domain.PaymentBreakdown{FromCredit: decimal.Zero, FromBank: decimal.NewFromInt(50), Total: decimal.NewFromInt(50)},
		Bank: domain.PaymentValidation{
			CanProceed: true,
			Warning:    "balance will go negative",
			Balance:    domain.FinalBalance{Current: decimal.NewFromInt(20), Final: decimal.NewFromInt(-30), IsNegative: true, Difference: decimal.NewFromInt(50)},
		},
	}
	suite.mockPayments.On("PreviewPayment", mock.Anything, mock.Anything).Return(preview, nil).Once()

	w := suite.request(http.MethodPost, "/api/v1/payments/preview", map[string]string{"total_due": "50", "bank_balance": "20"})

	suite.Equal(http.StatusOK, w.Code)
	var got dto.PaymentPreviewResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.True(got.Bank.CanProceed)
	suite.True(got.Bank.Balance.IsNegative)
}

func (suite *PaymentHandlerTestSuite) TestApproveDraft() {
	entryID := "entry-1"
	posted := &domain.PaymentDraft{DraftID: "d1", Status: domain.DraftStatusPosted, JournalEntryID: &entryID}
	suite.mockPayments.On("ApproveDraft", mock.Anything, "d1", suite.userID).Return(posted, nil).Once()
	suite.mockPayments.On("ApproveDraft", mock.Anything, "d2", suite.userID).
		Return(nil, apperrors.InvalidTransitionError{DraftID: "d2", From: "rejected", To: "posted"}).Once()

	w := suite.request(http.MethodPost, "/api/v1/payments/drafts/d1/approve", nil)
	suite.Equal(http.StatusOK, w.Code)
	var got dto.PaymentDraftResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(domain.DraftStatusPosted, got.Status)
	suite.Require().NotNil(got.JournalEntryID)

	w = suite.request(http.MethodPost, "/api/v1/payments/drafts/d2/approve", nil)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestRejectDraft() {
	rejected := &domain.PaymentDraft{DraftID: "d1", Status: domain.DraftStatusRejected, RejectionReason: "wrong supplier"}
	suite.mockPayments.On("RejectDraft", mock.Anything, "d1", "wrong supplier", suite.userID).Return(rejected, nil).Once()

	w := suite.request(http.MethodPost, "/api/v1/payments/drafts/d1/reject", map[string]string{"reason": "wrong supplier"})

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestGetDraft_NotFound() {
	suite.mockPayments.On("GetDraftByID", mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("payment draft missing not found")).Once()

	w := suite.request(http.MethodGet, "/api/v1/payments/drafts/missing", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestTopUpSupplierCredit() {
	entry := &domain.SupplierLedgerEntry{
		LedgerEntryID: "l1",
		SupplierID:    "sup-1",
		Type:          domain.SupplierCredit,
		Amount:        decimal.NewFromInt(200),
		Balance:       decimal.NewFromInt(200),
		Reason:        "advance",
	}
	suite.mockPayments.On("TopUpSupplierCredit", mock.Anything, "sup-1", mock.MatchedBy(func(req dto.TopUpSupplierCreditRequest) bool {
		return req.Amount.Equal(decimal.NewFromInt(200)) && req.Reason == "advance"
	}), suite.userID).Return(entry, nil).Once()

	w := suite.request(http.MethodPost, "/api/v1/suppliers/sup-1/credit", map[string]string{"amount": "200", "reason": "advance"})

	suite.Equal(http.StatusCreated, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestGetSupplierLedger() {
	ledger := &dto.SupplierLedgerResponse{SupplierID: "sup-1", Balance: decimal.NewFromInt(200)}
	suite.mockPayments.On("GetSupplierLedger", mock.Anything, "sup-1", 20).Return(ledger, nil).Once()
	suite.mockPayments.On("GetSupplierLedger", mock.Anything, "sup-1", 5).Return(ledger, nil).Once()

	w := suite.request(http.MethodGet, "/api/v1/suppliers/sup-1/ledger", nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/suppliers/sup-1/ledger?limit=5", nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/suppliers/sup-1/ledger?limit=abc", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}
