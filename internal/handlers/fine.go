package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/policy"
	"github.com/ngenohkevin/circulation/internal/services"
)

// FineServiceInterface defines the fine engine operations exposed over HTTP
type FineServiceInterface interface {
	SettleLoan(ctx context.Context, loanID int32, req models.SettleFineRequest, actor models.Actor) (*models.Fine, error)
	CollectAcrossFines(ctx context.Context, in models.CollectFinesInput, actor models.Actor) (*models.CollectionResult, error)
	ListByMember(ctx context.Context, memberID int32) ([]*models.Fine, error)
	Report(ctx context.Context, kind models.ReportKind) (models.FineReport, error)
	FinancialSummary(ctx context.Context) (models.FinancialSummary, error)
}

// FineExporter renders a report as a downloadable file
type FineExporter interface {
	Export(ctx context.Context, kind models.ReportKind, format models.ExportFormat) (*services.ExportFile, error)
}

type FineHandler struct {
	fines    FineServiceInterface
	exporter FineExporter
	policy   policy.Policy
}

func NewFineHandler(fines FineServiceInterface, exporter FineExporter, p policy.Policy) *FineHandler {
	return &FineHandler{fines: fines, exporter: exporter, policy: p}
}

// ListMemberFines lists a member's fines
// @Summary List a member's fines
// @Tags fines
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} SuccessResponse{data=[]models.Fine}
// @Router /api/v1/members/{id}/fines [get]
func (h *FineHandler) ListMemberFines(c *gin.Context) {
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := authorize(c, h.policy, policy.ActionViewFines, memberID); !ok {
		return
	}
	fines, err := h.fines.ListByMember(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: fines})
}

// CollectFines applies one payment and discount across a member's fines
// @Summary Collect fines
// @Description Discount and collection are prorated over the selected fines in order
// @Tags fines
// @Accept json
// @Produce json
// @Param request body models.CollectFinesRequest true "Collection"
// @Success 200 {object} SuccessResponse{data=models.CollectionResult}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/fines/collect [post]
func (h *FineHandler) CollectFines(c *gin.Context) {
	actor, ok := authorize(c, h.policy, policy.ActionCollectFines, 0)
	if !ok {
		return
	}
	var req models.CollectFinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	result, err := h.fines.CollectAcrossFines(c.Request.Context(), models.CollectFinesInput{
		MemberID:       req.MemberID,
		LoanIDs:        req.LoanIDs,
		TotalCollected: req.TotalCollected,
		TotalDiscount:  req.TotalDiscount,
		FullPayment:    req.FullPayment,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    result,
		Message: "Fines collected successfully",
	})
}

// SettleLoanFine overwrites the totals of one loan's fine
// @Summary Settle a loan's fine
// @Tags fines
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param request body models.SettleFineRequest true "Fine totals"
// @Success 200 {object} SuccessResponse{data=models.Fine}
// @Router /api/v1/loans/{id}/fine [put]
func (h *FineHandler) SettleLoanFine(c *gin.Context) {
	loanID, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := authorize(c, h.policy, policy.ActionCollectFines, 0)
	if !ok {
		return
	}
	var req models.SettleFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	fine, err := h.fines.SettleLoan(c.Request.Context(), loanID, req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: fine, Message: "Fine updated successfully"})
}

// Report returns one of the collected, pending or cash-in-hand reports. The
// kind comes from the route.
// @Summary Fine report
// @Tags fines
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.FineReport}
// @Router /api/v1/fines/collected [get]
// @Router /api/v1/fines/pending [get]
// @Router /api/v1/fines/cash-in-hand [get]
func (h *FineHandler) Report(kind models.ReportKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := h.fines.Report(c.Request.Context(), kind)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: report})
	}
}

// FinancialSummary combines the three reports
// @Summary Financial summary
// @Tags fines
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.FinancialSummary}
// @Router /api/v1/fines/financial-reports [get]
func (h *FineHandler) FinancialSummary(c *gin.Context) {
	summary, err := h.fines.FinancialSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: summary})
}

// ExportReport downloads a report as CSV or Excel
// @Summary Export a fine report
// @Tags fines
// @Produce octet-stream
// @Param kind query string true "collected, pending or cash-in-hand"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/fines/export [get]
func (h *FineHandler) ExportReport(c *gin.Context) {
	kind := models.ReportKind(c.Query("kind"))
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportCSV)))

	file, err := h.exporter.Export(c.Request.Context(), kind, format)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
