package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/policy"
)

// LoanServiceInterface defines the issuance engine operations exposed over HTTP
type LoanServiceInterface interface {
	Issue(ctx context.Context, in models.IssueLoanInput, actor models.Actor) (*models.Loan, error)
	Return(ctx context.Context, in models.ReturnLoanInput, actor models.Actor) (*models.ReturnResult, error)
	Get(ctx context.Context, id int32) (*models.Loan, error)
	ListByMember(ctx context.Context, memberID int32, page, limit int) ([]*models.Loan, models.Pagination, error)
	List(ctx context.Context, filter models.LoanFilter) ([]*models.Loan, models.Pagination, error)
}

type LoanHandler struct {
	loans  LoanServiceInterface
	policy policy.Policy
}

func NewLoanHandler(loans LoanServiceInterface, p policy.Policy) *LoanHandler {
	return &LoanHandler{loans: loans, policy: p}
}

// IssueLoan issues a copy at the desk
// @Summary Issue a book
// @Tags loans
// @Accept json
// @Produce json
// @Param request body models.IssueLoanRequest true "Issue request"
// @Success 201 {object} SuccessResponse{data=models.Loan}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/loans [post]
func (h *LoanHandler) IssueLoan(c *gin.Context) {
	actor, ok := authorize(c, h.policy, policy.ActionIssueLoan, 0)
	if !ok {
		return
	}
	var req models.IssueLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	issueDate, err := optionalDate(req.IssueDate)
	if err != nil {
		respondValidation(c, "Invalid issue_date", err)
		return
	}
	dueDate, err := optionalDate(req.DueDate)
	if err != nil {
		respondValidation(c, "Invalid due_date", err)
		return
	}

	loan, err := h.loans.Issue(c.Request.Context(), models.IssueLoanInput{
		BookID:    req.BookID,
		MemberID:  req.MemberID,
		IssueDate: issueDate,
		DueDate:   dueDate,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    loan,
		Message: "Book issued successfully",
	})
}

// ReturnLoan closes a loan and settles its fine
// @Summary Return a book
// @Description Resolution RETURNED puts the copy back on the shelf; LOST and WRITE_OFF charge the book price
// @Tags loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param request body models.ReturnLoanRequest false "Return request"
// @Success 200 {object} SuccessResponse{data=models.ReturnResult}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/loans/{id}/return [post]
func (h *LoanHandler) ReturnLoan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := authorize(c, h.policy, policy.ActionReturnLoan, 0)
	if !ok {
		return
	}
	var req models.ReturnLoanRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, "Invalid request data", err)
			return
		}
	}
	returnDate, err := optionalDate(req.ReturnDate)
	if err != nil {
		respondValidation(c, "Invalid return_date", err)
		return
	}

	result, err := h.loans.Return(c.Request.Context(), models.ReturnLoanInput{
		LoanID:     id,
		ReturnDate: returnDate,
		Resolution: req.Resolution,
		Collected:  req.Collected,
		Discount:   req.Discount,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    result,
		Message: "Book returned successfully",
	})
}

// GetLoan returns one loan
// @Summary Get a loan
// @Tags loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} SuccessResponse{data=models.Loan}
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/loans/{id} [get]
func (h *LoanHandler) GetLoan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	loan, err := h.loans.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, ok := authorize(c, h.policy, policy.ActionViewLoan, loan.MemberID); !ok {
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: loan})
}

// ListLoans lists loans for staff
// @Summary List loans
// @Tags loans
// @Produce json
// @Param status query string false "Loan status"
// @Param open query bool false "Only loans not yet returned"
// @Param due_before query string false "Due strictly before (YYYY-MM-DD)"
// @Success 200 {object} ListResponse{data=[]models.Loan}
// @Router /api/v1/loans [get]
func (h *LoanHandler) ListLoans(c *gin.Context) {
	var filter models.LoanFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondValidation(c, "Invalid query parameters", err)
		return
	}
	loans, meta, err := h.loans.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: loans, Meta: meta})
}

// ListMemberLoans lists a member's loans
// @Summary List a member's loans
// @Tags loans
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} ListResponse{data=[]models.Loan}
// @Router /api/v1/members/{id}/loans [get]
func (h *LoanHandler) ListMemberLoans(c *gin.Context) {
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := authorize(c, h.policy, policy.ActionViewLoan, memberID); !ok {
		return
	}
	var page pageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		respondValidation(c, "Invalid query parameters", err)
		return
	}
	loans, meta, err := h.loans.ListByMember(c.Request.Context(), memberID, page.Page, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: loans, Meta: meta})
}
