package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/metrics"
	"github.com/ngenohkevin/circulation/internal/models"
)

// IssuanceService handles walk-up issues, returns and the overdue sweep
type IssuanceService struct {
	store    database.Store
	settings SettingsProvider
	effects  sideEffects
	clock    func() time.Time
}

func NewIssuanceService(store database.Store, settings SettingsProvider, logger *slog.Logger) *IssuanceService {
	return &IssuanceService{
		store:    store,
		settings: settings,
		effects:  newSideEffects(logger),
		clock:    time.Now,
	}
}

func (s *IssuanceService) WithAudit(audit AuditRecorder) *IssuanceService {
	s.effects.audit = audit
	return s
}

func (s *IssuanceService) WithNotifier(n NotificationScheduler) *IssuanceService {
	s.effects.notifier = n
	return s
}

func (s *IssuanceService) WithEvents(events EventPublisher) *IssuanceService {
	s.effects.events = events
	return s
}

func (s *IssuanceService) WithClock(clock func() time.Time) *IssuanceService {
	s.clock = clock
	return s
}

// Issue lends one copy of a book to a member.
func (s *IssuanceService) Issue(ctx context.Context, in models.IssueLoanInput, actor models.Actor) (*models.Loan, error) {
	settings, err := s.settings.LibrarySettings(ctx)
	if err != nil {
		return nil, err
	}

	issueDate := in.IssueDate
	if issueDate.IsZero() {
		issueDate = today(s.clock, settings)
	}
	dueDate := in.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.AddDays(settings.MaxIssueDuration)
	}
	if err := validateLoanDates(issueDate, dueDate, settings.MaxIssueDuration); err != nil {
		return nil, err
	}

	var loan queries.Loan
	err = s.store.ExecTx(ctx, func(q queries.Querier) error {
		if _, err := activeMember(ctx, q, in.MemberID, false); err != nil {
			return err
		}
		book, err := q.GetBookForUpdate(ctx, in.BookID)
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrBookNotFound
			}
			return fmt.Errorf("failed to lock book: %w", err)
		}
		if models.BookStatus(book.Status) != models.BookStatusActive {
			return apperrors.ErrBookInactive
		}
		if book.AvailableCopies < 1 {
			return apperrors.ErrNoCopiesAvailable
		}

		loan, err = openLoan(ctx, q, settings, queries.CreateLoanParams{
			BookID:    in.BookID,
			MemberID:  in.MemberID,
			IssueDate: pgDate(issueDate),
			DueDate:   pgDate(dueDate),
		})
		if err != nil {
			return err
		}
		return takeCopy(ctx, q, book.ID)
	})
	metrics.ObserveOperation("loan_issue", err)
	if err != nil {
		return nil, err
	}

	issued := loanFromRow(loan)
	announceLoan(ctx, s.effects, actor, issued)
	return issued, nil
}

// Return closes a loan, charging overdue days and, for LOST or WRITE_OFF, the
// book price. The fine is settled in the same transaction.
func (s *IssuanceService) Return(ctx context.Context, in models.ReturnLoanInput, actor models.Actor) (*models.ReturnResult, error) {
	resolution := in.Resolution
	if resolution == "" {
		resolution = models.LoanStatusReturned
	}
	if !resolution.IsResolution() {
		return nil, apperrors.ErrInvalidResolution
	}
	if in.Collected.IsNegative() || in.Discount.IsNegative() {
		return nil, apperrors.ErrNegativeAmount
	}

	settings, err := s.settings.LibrarySettings(ctx)
	if err != nil {
		return nil, err
	}
	returnDate := in.ReturnDate
	if returnDate.IsZero() {
		returnDate = today(s.clock, settings)
	}

	var (
		closed  queries.Loan
		fine    queries.Fine
		member  queries.Member
		details models.FineDetails
		shelf   int32
	)
	err = s.store.ExecTx(ctx, func(q queries.Querier) error {
		loan, err := q.GetLoanForUpdate(ctx, in.LoanID)
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrLoanNotFound
			}
			return fmt.Errorf("failed to lock loan: %w", err)
		}
		if loan.ReturnedAt.Valid {
			return apperrors.ErrAlreadyReturned
		}
		if _, err := lockMember(ctx, q, loan.MemberID); err != nil {
			return err
		}
		book, err := q.GetBookForUpdate(ctx, loan.BookID)
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrBookNotFound
			}
			return fmt.Errorf("failed to lock book: %w", err)
		}

		details = computeFine(dateFromPg(loan.DueDate), returnDate, settings.FinePerDay, resolution, decimalFromNumeric(book.Price))
		fine, err = settle(ctx, q, loan.ID, loan.MemberID, fineTotals{
			Amount:     details.TotalFine,
			Collected:  in.Collected,
			Discount:   in.Discount,
			CashInHand: in.Collected,
		})
		if err != nil {
			return err
		}

		shelf = book.AvailableCopies
		if resolution == models.LoanStatusReturned {
			n, err := q.IncrementAvailableCopies(ctx, book.ID)
			if err != nil {
				return fmt.Errorf("failed to restore copy: %w", err)
			}
			shelf += int32(n)
		} else {
			_, err := q.UpdateBookStatus(ctx, queries.UpdateBookStatusParams{
				ID:           book.ID,
				Status:       string(resolution),
				StatusReason: textOrNull(fmt.Sprintf("loan #%d resolved as %s", loan.ID, resolution)),
			})
			if err != nil {
				return fmt.Errorf("failed to update book status: %w", err)
			}
		}

		closed, err = q.CloseLoan(ctx, queries.CloseLoanParams{
			ID:         loan.ID,
			ReturnedAt: pgDate(returnDate),
			Status:     string(resolution),
		})
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrAlreadyReturned
			}
			return fmt.Errorf("failed to close loan: %w", err)
		}

		member, err = recomputeDefaulter(ctx, q, loan.MemberID)
		return err
	})
	metrics.ObserveOperation("loan_return", err)
	if err != nil {
		return nil, err
	}

	settled := fineFromRow(fine)
	details.Collected = settled.CollectedAmount
	details.Discount = settled.Discount
	details.Remaining = settled.RemainingFines

	result := &models.ReturnResult{
		Loan:            loanFromRow(closed),
		Fine:            settled,
		FineDetails:     details,
		AvailableCopies: shelf,
		IsDefaulter:     member.IsDefaulter,
	}

	s.effects.logger.Info("Loan closed",
		"loan_id", closed.ID,
		"resolution", resolution,
		"overdue_days", details.OverdueDays,
		"total_fine", details.TotalFine.StringFixed(2),
	)
	if settled.RemainingFines.IsPositive() {
		s.effects.dependency("notifier", s.effects.notifier.FineImposed(ctx, result.Loan, settled))
	}
	s.effects.record(ctx, actor, models.EventBookReturned, fmt.Sprintf(
		"Loan #%d closed as %s on %s with fine %s (remaining %s)",
		closed.ID, resolution, returnDate, details.TotalFine.StringFixed(2), settled.RemainingFines.StringFixed(2),
	))
	s.effects.publish(ctx, models.RoutingLoanReturned, result)
	return result, nil
}

// MarkOverdue flags every ISSUED loan due before asOf. It is idempotent.
func (s *IssuanceService) MarkOverdue(ctx context.Context, asOf models.Date) (models.SweepResult, error) {
	if asOf.IsZero() {
		settings, err := s.settings.LibrarySettings(ctx)
		if err != nil {
			return models.SweepResult{}, err
		}
		asOf = today(s.clock, settings)
	}

	ids, err := s.store.MarkOverdueLoans(ctx, pgDate(asOf))
	metrics.ObserveOperation("loan_mark_overdue", err)
	if err != nil {
		return models.SweepResult{}, fmt.Errorf("failed to mark overdue loans: %w", err)
	}
	if ids == nil {
		ids = []int32{}
	}

	result := models.SweepResult{Count: len(ids), IDs: ids}
	if result.Count > 0 {
		metrics.SweptRecords.WithLabelValues("overdue_loans").Add(float64(result.Count))
		s.effects.logger.Info("Loans marked overdue", "count", result.Count, "as_of", asOf.String())
		s.effects.record(ctx, models.SystemActor, models.EventLoansMarkedOverdue,
			fmt.Sprintf("Marked %d loan(s) overdue as of %s", result.Count, asOf))
	}
	return result, nil
}

func (s *IssuanceService) Get(ctx context.Context, id int32) (*models.Loan, error) {
	loan, err := s.store.GetLoan(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loanFromRow(loan), nil
}

func (s *IssuanceService) ListByMember(ctx context.Context, memberID int32, page, limit int) ([]*models.Loan, models.Pagination, error) {
	page, limit = pageBounds(page, limit)
	total, err := s.store.CountLoansByMember(ctx, memberID)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count loans: %w", err)
	}
	rows, err := s.store.ListLoansByMember(ctx, queries.ListLoansByMemberParams{
		MemberID: memberID,
		Limit:    int32(limit),
		Offset:   int32((page - 1) * limit),
	})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list loans: %w", err)
	}
	return loansFromRows(rows), models.NewPagination(page, limit, total), nil
}

// List returns loans matching a staff filter.
func (s *IssuanceService) List(ctx context.Context, filter models.LoanFilter) ([]*models.Loan, models.Pagination, error) {
	page, limit := pageBounds(filter.Page, filter.Limit)
	f := queries.LoanFilter{
		Status:   filter.Status,
		MemberID: filter.MemberID,
		BookID:   filter.BookID,
		OpenOnly: filter.OpenOnly,
		Limit:    int32(limit),
		Offset:   int32((page - 1) * limit),
	}
	if filter.DueBefore != "" {
		due, err := models.ParseDate(filter.DueBefore)
		if err != nil {
			return nil, models.Pagination{}, apperrors.Wrap(apperrors.KindValidation, apperrors.CodeValidation, err, "invalid due_before date")
		}
		f.DueBefore = pgDate(due)
	}

	total, err := s.store.CountLoans(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count loans: %w", err)
	}
	rows, err := s.store.ListLoans(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list loans: %w", err)
	}
	return loansFromRows(rows), models.NewPagination(page, limit, total), nil
}

// computeFine charges whole overdue days at the daily rate, plus the book
// price when the copy is not coming back.
func computeFine(due, returned models.Date, perDay decimal.Decimal, resolution models.LoanStatus, price decimal.Decimal) models.FineDetails {
	days := due.DaysUntil(returned)
	if days < 0 {
		days = 0
	}
	overdue := roundMoney(perDay.Mul(decimal.NewFromInt(int64(days))))
	details := models.FineDetails{
		OverdueDays: days,
		OverdueFine: overdue,
		BookPrice:   decimal.Zero,
		TotalFine:   overdue,
	}
	if resolution.ChargesPrice() {
		details.BookPrice = roundMoney(price)
		details.TotalFine = roundMoney(overdue.Add(price))
	}
	return details
}

func validateLoanDates(issue, due models.Date, maxDays int) error {
	if !due.After(issue) {
		return apperrors.ErrInvalidDates
	}
	if issue.DaysUntil(due) > maxDays {
		return apperrors.ErrDurationExceeded
	}
	return nil
}

// openLoan enforces the per-member loan rules and inserts the loan row.
func openLoan(ctx context.Context, q queries.Querier, settings models.LibrarySettings, arg queries.CreateLoanParams) (queries.Loan, error) {
	held, err := q.HasOpenLoan(ctx, queries.HasOpenLoanParams{MemberID: arg.MemberID, BookID: arg.BookID})
	if err != nil {
		return queries.Loan{}, fmt.Errorf("failed to check open loans: %w", err)
	}
	if held {
		return queries.Loan{}, apperrors.ErrAlreadyHeld
	}
	open, err := q.CountOpenLoansByMember(ctx, arg.MemberID)
	if err != nil {
		return queries.Loan{}, fmt.Errorf("failed to count open loans: %w", err)
	}
	if open >= int64(settings.MaxBooksPerMember) {
		return queries.Loan{}, apperrors.ErrCapExceeded
	}

	loan, err := q.CreateLoan(ctx, arg)
	if err != nil {
		if uniqueViolation(err, "loans_one_open_idx") {
			return queries.Loan{}, apperrors.ErrAlreadyHeld
		}
		return queries.Loan{}, fmt.Errorf("failed to create loan: %w", err)
	}
	return loan, nil
}

// announceLoan runs the post-commit effects shared by both issue paths.
func announceLoan(ctx context.Context, effects sideEffects, actor models.Actor, loan *models.Loan) {
	effects.logger.Info("Book issued",
		"loan_id", loan.ID,
		"book_id", loan.BookID,
		"member_id", loan.MemberID,
		"due_date", loan.DueDate.String(),
	)
	effects.dependency("notifier", effects.notifier.LoanIssued(ctx, loan))
	effects.record(ctx, actor, models.EventBookIssued, fmt.Sprintf(
		"Book %d issued to member %d as loan #%d, due %s", loan.BookID, loan.MemberID, loan.ID, loan.DueDate,
	))
	effects.publish(ctx, models.RoutingLoanIssued, loan)
}

func loansFromRows(rows []queries.Loan) []*models.Loan {
	out := make([]*models.Loan, 0, len(rows))
	for _, l := range rows {
		out = append(out, loanFromRow(l))
	}
	return out
}
