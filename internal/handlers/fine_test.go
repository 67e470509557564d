package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/policy"
	"github.com/ngenohkevin/circulation/internal/services"
)

type MockFineService struct {
	mock.Mock
}

func (m *MockFineService) SettleLoan(ctx context.Context, loanID int32, req models.SettleFineRequest, actor models.Actor) (*models.Fine, error) {
	args := m.Called(ctx, loanID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fine), args.Error(1)
}

func (m *MockFineService) CollectAcrossFines(ctx context.Context, in models.CollectFinesInput, actor models.Actor) (*models.CollectionResult, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CollectionResult), args.Error(1)
}

func (m *MockFineService) ListByMember(ctx context.Context, memberID int32) ([]*models.Fine, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).([]*models.Fine), args.Error(1)
}

func (m *MockFineService) Report(ctx context.Context, kind models.ReportKind) (models.FineReport, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).(models.FineReport), args.Error(1)
}

func (m *MockFineService) FinancialSummary(ctx context.Context) (models.FinancialSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.FinancialSummary), args.Error(1)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, kind models.ReportKind, format models.ExportFormat) (*services.ExportFile, error) {
	args := m.Called(ctx, kind, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExportFile), args.Error(1)
}

func fineRouter(svc *MockFineService, exporter *MockExporter, actor *models.Actor) http.Handler {
	h := NewFineHandler(svc, exporter, policy.NewRolePolicy())
	r := newRouter(actor)
	r.GET("/members/:id/fines", h.ListMemberFines)
	r.POST("/fines/collect", h.CollectFines)
	r.PUT("/loans/:id/fine", h.SettleLoanFine)
	r.GET("/fines/pending", h.Report(models.ReportPending))
	r.GET("/fines/financial-reports", h.FinancialSummary)
	r.GET("/fines/export", h.ExportReport)
	return r
}

func TestFineHandler_ListMemberFines(t *testing.T) {
	svc := new(MockFineService)
	svc.On("ListByMember", mock.Anything, int32(7)).
		Return([]*models.Fine{{ID: 1, LoanID: 11, MemberID: 7, Amount: decimal.NewFromInt(50)}}, nil)

	w := perform(t, fineRouter(svc, nil, actorPtr(memberActor)), http.MethodGet, "/members/7/fines", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, fineRouter(svc, nil, actorPtr(otherMember)), http.MethodGet, "/members/7/fines", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.AssertNumberOfCalls(t, "ListByMember", 1)
}

func TestFineHandler_CollectFines(t *testing.T) {
	t.Run("prorated collection", func(t *testing.T) {
		svc := new(MockFineService)
		svc.On("CollectAcrossFines", mock.Anything, mock.MatchedBy(func(in models.CollectFinesInput) bool {
			return in.MemberID == 7 && len(in.LoanIDs) == 2 &&
				in.TotalCollected.Equal(decimal.NewFromInt(60)) && in.TotalDiscount.Equal(decimal.NewFromInt(20))
		}), managerActor).Return(&models.CollectionResult{MemberID: 7, AllFullyPaidSelected: true}, nil)

		w := perform(t, fineRouter(svc, nil, actorPtr(managerActor)), http.MethodPost, "/fines/collect", map[string]interface{}{
			"member_id":       7,
			"loan_ids":        []int{11, 12},
			"total_collected": "60",
			"total_discount":  "20",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("no fines", func(t *testing.T) {
		svc := new(MockFineService)
		svc.On("CollectAcrossFines", mock.Anything, mock.Anything, managerActor).Return(nil, apperrors.ErrNoFinesFound)

		w := perform(t, fineRouter(svc, nil, actorPtr(managerActor)), http.MethodPost, "/fines/collect",
			map[string]interface{}{"member_id": 7})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.CodeNoFinesFound, errorCode(t, w))
	})

	t.Run("members cannot collect", func(t *testing.T) {
		svc := new(MockFineService)
		w := perform(t, fineRouter(svc, nil, actorPtr(memberActor)), http.MethodPost, "/fines/collect",
			map[string]interface{}{"member_id": 7})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestFineHandler_SettleLoanFine(t *testing.T) {
	svc := new(MockFineService)
	svc.On("SettleLoan", mock.Anything, int32(11), mock.MatchedBy(func(req models.SettleFineRequest) bool {
		return req.Amount.Equal(decimal.NewFromInt(50)) && req.Collected.Equal(decimal.NewFromInt(50))
	}), managerActor).Return(&models.Fine{ID: 1, LoanID: 11, Collected: true}, nil)
	svc.On("SettleLoan", mock.Anything, int32(12), mock.Anything, managerActor).Return(nil, apperrors.ErrNegativeAmount)

	w := perform(t, fineRouter(svc, nil, actorPtr(managerActor)), http.MethodPut, "/loans/11/fine",
		map[string]string{"amount": "50", "collected_amount": "50"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, fineRouter(svc, nil, actorPtr(managerActor)), http.MethodPut, "/loans/12/fine",
		map[string]string{"amount": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeNegativeAmount, errorCode(t, w))
}

func TestFineHandler_Reports(t *testing.T) {
	svc := new(MockFineService)
	svc.On("Report", mock.Anything, models.ReportPending).
		Return(models.FineReport{Rows: []models.FineReportRow{{FineID: 1}}, Total: decimal.NewFromInt(50)}, nil)
	svc.On("FinancialSummary", mock.Anything).
		Return(models.FinancialSummary{OutstandingDebt: decimal.NewFromInt(50)}, nil)

	w := perform(t, fineRouter(svc, nil, actorPtr(managerActor)), http.MethodGet, "/fines/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data models.FineReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Total.Equal(decimal.NewFromInt(50)))
	assert.Len(t, resp.Data.Rows, 1)

	w = perform(t, fineRouter(svc, nil, actorPtr(managerActor)), http.MethodGet, "/fines/financial-reports", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFineHandler_ExportReport(t *testing.T) {
	t.Run("csv by default", func(t *testing.T) {
		exporter := new(MockExporter)
		exporter.On("Export", mock.Anything, models.ReportCollected, models.ExportCSV).Return(&services.ExportFile{
			FileName:    "fines_collected_20261101_120000.csv",
			ContentType: "text/csv",
			Content:     []byte("fine_id,loan_id\n1,11\n"),
		}, nil)

		w := perform(t, fineRouter(new(MockFineService), exporter, actorPtr(managerActor)), http.MethodGet, "/fines/export?kind=collected", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="fines_collected_20261101_120000.csv"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "fine_id,loan_id\n1,11\n", w.Body.String())
	})

	t.Run("unsupported format", func(t *testing.T) {
		exporter := new(MockExporter)
		exporter.On("Export", mock.Anything, models.ReportCollected, models.ExportFormat("pdf")).Return(nil, apperrors.ErrUnsupportedExport)

		w := perform(t, fineRouter(new(MockFineService), exporter, actorPtr(managerActor)), http.MethodGet, "/fines/export?kind=collected&format=pdf", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CodeUnsupportedExportKind, errorCode(t, w))
	})
}
