package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/metrics"
	"github.com/ngenohkevin/circulation/internal/models"
)

// FineReportReader runs the read-side fine reports.
type FineReportReader interface {
	FineReport(ctx context.Context, kind models.ReportKind) (models.FineReport, error)
	TotalDiscount(ctx context.Context) (decimal.Decimal, error)
}

// FineService owns the per-loan fine ledger
type FineService struct {
	store   database.Store
	reports FineReportReader
	effects sideEffects
}

func NewFineService(store database.Store, reports FineReportReader, logger *slog.Logger) *FineService {
	return &FineService{
		store:   store,
		reports: reports,
		effects: newSideEffects(logger),
	}
}

func (s *FineService) WithAudit(audit AuditRecorder) *FineService {
	s.effects.audit = audit
	return s
}

func (s *FineService) WithNotifier(n NotificationScheduler) *FineService {
	s.effects.notifier = n
	return s
}

func (s *FineService) WithEvents(events EventPublisher) *FineService {
	s.effects.events = events
	return s
}

// fineTotals are the absolute values a fine is settled to.
type fineTotals struct {
	Amount     decimal.Decimal
	Collected  decimal.Decimal
	Discount   decimal.Decimal
	CashInHand decimal.Decimal
}

func (t fineTotals) remaining() decimal.Decimal {
	return clampZero(roundMoney(t.Amount.Sub(t.Collected).Sub(t.Discount)))
}

// settle upserts the fine of a loan. Calling it again with the same totals
// leaves the row unchanged.
func settle(ctx context.Context, q queries.Querier, loanID, memberID int32, t fineTotals) (queries.Fine, error) {
	remaining := t.remaining()
	fine, err := q.UpsertFine(ctx, queries.UpsertFineParams{
		LoanID:          loanID,
		MemberID:        memberID,
		Amount:          numericFromDecimal(t.Amount),
		CashInHand:      numericFromDecimal(t.CashInHand),
		CollectedAmount: numericFromDecimal(t.Collected),
		Discount:        numericFromDecimal(t.Discount),
		RemainingFines:  numericFromDecimal(remaining),
		Collected:       remaining.IsZero(),
	})
	if err != nil {
		return queries.Fine{}, fmt.Errorf("failed to settle fine for loan %d: %w", loanID, err)
	}
	return fine, nil
}

// SettleLoan overwrites the totals of one loan's fine.
func (s *FineService) SettleLoan(ctx context.Context, loanID int32, req models.SettleFineRequest, actor models.Actor) (*models.Fine, error) {
	for _, v := range []decimal.Decimal{req.Amount, req.Collected, req.Discount, req.CashInHand} {
		if v.IsNegative() {
			return nil, apperrors.ErrNegativeAmount
		}
	}

	var fine queries.Fine
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		loan, err := q.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrLoanNotFound
			}
			return fmt.Errorf("failed to lock loan: %w", err)
		}
		if _, err := lockMember(ctx, q, loan.MemberID); err != nil {
			return err
		}
		fine, err = settle(ctx, q, loan.ID, loan.MemberID, fineTotals{
			Amount:     req.Amount,
			Collected:  req.Collected,
			Discount:   req.Discount,
			CashInHand: req.CashInHand,
		})
		if err != nil {
			return err
		}
		_, err = recomputeDefaulter(ctx, q, loan.MemberID)
		return err
	})
	metrics.ObserveOperation("fine_settle", err)
	if err != nil {
		return nil, err
	}

	settled := fineFromRow(fine)
	s.effects.record(ctx, actor, models.EventFineCollected, fmt.Sprintf(
		"Fine for loan #%d settled: amount %s, collected %s, discount %s, remaining %s",
		loanID, settled.Amount.StringFixed(2), settled.CollectedAmount.StringFixed(2),
		settled.Discount.StringFixed(2), settled.RemainingFines.StringFixed(2),
	))
	return settled, nil
}

// allocation is the share of a budget given to each outstanding balance.
type allocation struct {
	discounts   []decimal.Decimal
	collections []decimal.Decimal
	leftoverD   decimal.Decimal
	leftoverC   decimal.Decimal
}

// prorate spreads the discount and then the payment over balances in order,
// each balance absorbing as much of the remaining budget as it can.
func prorate(balances []decimal.Decimal, discount, collected decimal.Decimal) allocation {
	a := allocation{
		discounts:   make([]decimal.Decimal, len(balances)),
		collections: make([]decimal.Decimal, len(balances)),
	}
	left := make([]decimal.Decimal, len(balances))
	copy(left, balances)

	budget := discount
	for i := range left {
		d := decimal.Min(budget, left[i])
		a.discounts[i] = d
		left[i] = left[i].Sub(d)
		budget = budget.Sub(d)
	}
	a.leftoverD = budget

	budget = collected
	for i := range left {
		c := decimal.Min(budget, left[i])
		a.collections[i] = c
		budget = budget.Sub(c)
	}
	a.leftoverC = budget
	return a
}

// CollectAcrossFines applies one payment and one discount across a member's
// outstanding fines. Budget left once every selected fine is cleared is
// reported back, not refunded.
func (s *FineService) CollectAcrossFines(ctx context.Context, in models.CollectFinesInput, actor models.Actor) (*models.CollectionResult, error) {
	if in.TotalCollected.IsNegative() || in.TotalDiscount.IsNegative() {
		return nil, apperrors.ErrNegativeAmount
	}
	totalCollected := roundMoney(in.TotalCollected)
	totalDiscount := roundMoney(in.TotalDiscount)

	result := &models.CollectionResult{MemberID: in.MemberID}
	var applied decimal.Decimal
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		if _, err := q.GetMemberForUpdate(ctx, in.MemberID); err != nil {
			if isNoRows(err) {
				return apperrors.ErrMemberNotFound
			}
			return fmt.Errorf("failed to lock member: %w", err)
		}

		fines, err := s.selectFines(ctx, q, in)
		if err != nil {
			return err
		}

		var outstanding []queries.Fine
		var balances []decimal.Decimal
		for _, f := range fines {
			balance := decimalFromNumeric(f.Amount).
				Sub(decimalFromNumeric(f.CollectedAmount)).
				Sub(decimalFromNumeric(f.Discount))
			if !balance.IsPositive() {
				continue
			}
			outstanding = append(outstanding, f)
			balances = append(balances, balance)
		}
		if len(outstanding) == 0 {
			return apperrors.ErrNoFinesFound
		}

		alloc := prorate(balances, totalDiscount, totalCollected)
		result.Allocations = make([]models.FineAllocation, 0, len(outstanding))
		result.AllFullyPaidSelected = true
		for i, f := range outstanding {
			d, c := alloc.discounts[i], alloc.collections[i]
			saved, err := settle(ctx, q, f.LoanID, f.MemberID, fineTotals{
				Amount:     decimalFromNumeric(f.Amount),
				Collected:  decimalFromNumeric(f.CollectedAmount).Add(c),
				Discount:   decimalFromNumeric(f.Discount).Add(d),
				CashInHand: decimalFromNumeric(f.CashInHand).Add(c),
			})
			if err != nil {
				return err
			}
			remaining := decimalFromNumeric(saved.RemainingFines)
			if remaining.IsPositive() {
				result.AllFullyPaidSelected = false
			}
			applied = applied.Add(c)
			result.Allocations = append(result.Allocations, models.FineAllocation{
				FineID:           saved.ID,
				LoanID:           saved.LoanID,
				AppliedDiscount:  d,
				AppliedCollected: c,
				Remaining:        remaining,
			})
		}
		result.LeftoverDiscount = alloc.leftoverD
		result.LeftoverCollected = alloc.leftoverC

		var member queries.Member
		if in.FullPayment {
			member, err = q.SetMemberDefaulter(ctx, queries.SetMemberDefaulterParams{ID: in.MemberID, IsDefaulter: false})
			if err != nil {
				return fmt.Errorf("failed to clear defaulter flag: %w", err)
			}
		} else {
			member, err = recomputeDefaulter(ctx, q, in.MemberID)
			if err != nil {
				return err
			}
		}
		result.IsDefaulter = member.IsDefaulter
		return nil
	})
	metrics.ObserveOperation("fine_collect", err)
	if err != nil {
		return nil, err
	}

	amount, _ := applied.Float64()
	metrics.FinesCollectedAmount.Add(amount)
	s.effects.logger.Info("Fines collected",
		"member_id", in.MemberID,
		"fines", len(result.Allocations),
		"collected", applied.StringFixed(2),
		"leftover_collected", result.LeftoverCollected.StringFixed(2),
	)
	s.effects.record(ctx, actor, models.EventFineCollected, fmt.Sprintf(
		"Collected %s and discounted %s across %d fine(s) for member %d",
		applied.StringFixed(2), totalDiscount.Sub(result.LeftoverDiscount).StringFixed(2),
		len(result.Allocations), in.MemberID,
	))
	s.effects.dependency("notifier", s.effects.notifier.FinesCollected(ctx, result))
	s.effects.publish(ctx, models.RoutingFineCollected, result)
	return result, nil
}

// selectFines locks the fines to collect against, in caller order when loan
// ids are given and oldest first otherwise.
func (s *FineService) selectFines(ctx context.Context, q queries.Querier, in models.CollectFinesInput) ([]queries.Fine, error) {
	if len(in.LoanIDs) == 0 {
		fines, err := q.ListFinesByMemberForUpdate(ctx, in.MemberID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock fines: %w", err)
		}
		return fines, nil
	}

	rows, err := q.ListFinesByLoanIDsForUpdate(ctx, queries.ListFinesByLoanIDsForUpdateParams{
		MemberID: in.MemberID,
		LoanIds:  in.LoanIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to lock fines: %w", err)
	}
	byLoan := make(map[int32]queries.Fine, len(rows))
	for _, f := range rows {
		byLoan[f.LoanID] = f
	}
	ordered := make([]queries.Fine, 0, len(rows))
	seen := make(map[int32]bool, len(in.LoanIDs))
	for _, id := range in.LoanIDs {
		f, ok := byLoan[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ordered = append(ordered, f)
	}
	return ordered, nil
}

func (s *FineService) ListByMember(ctx context.Context, memberID int32) ([]*models.Fine, error) {
	if _, err := s.store.GetMember(ctx, memberID); err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	rows, err := s.store.ListFinesByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fines: %w", err)
	}
	fines := make([]*models.Fine, 0, len(rows))
	for _, f := range rows {
		fines = append(fines, fineFromRow(f))
	}
	return fines, nil
}

// Report returns one of the collected, pending or cash-in-hand reports.
func (s *FineService) Report(ctx context.Context, kind models.ReportKind) (models.FineReport, error) {
	if !kind.Valid() {
		return models.FineReport{}, apperrors.ErrUnsupportedExport
	}
	report, err := s.reports.FineReport(ctx, kind)
	if err != nil {
		return models.FineReport{}, fmt.Errorf("failed to build %s report: %w", kind, err)
	}
	return report, nil
}

// FinancialSummary combines the three reports with the discount total.
func (s *FineService) FinancialSummary(ctx context.Context) (models.FinancialSummary, error) {
	var summary models.FinancialSummary
	var err error
	if summary.Collected, err = s.Report(ctx, models.ReportCollected); err != nil {
		return summary, err
	}
	if summary.Pending, err = s.Report(ctx, models.ReportPending); err != nil {
		return summary, err
	}
	if summary.CashInHand, err = s.Report(ctx, models.ReportCashInHand); err != nil {
		return summary, err
	}
	if summary.TotalDiscount, err = s.reports.TotalDiscount(ctx); err != nil {
		return summary, fmt.Errorf("failed to total discounts: %w", err)
	}
	summary.OutstandingDebt = summary.Pending.Total
	return summary, nil
}
