package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/metrics"
	"github.com/ngenohkevin/circulation/internal/models"
)

// ReservationService handles the hold lifecycle: request, fulfilment at the
// desk, conversion into a loan, cancellation and the stale sweep.
type ReservationService struct {
	store    database.Store
	settings SettingsProvider
	effects  sideEffects
	clock    func() time.Time
}

// NewReservationService creates a reservation service with no-op collaborators
func NewReservationService(store database.Store, settings SettingsProvider, logger *slog.Logger) *ReservationService {
	return &ReservationService{
		store:    store,
		settings: settings,
		effects:  newSideEffects(logger),
		clock:    time.Now,
	}
}

func (s *ReservationService) WithAudit(audit AuditRecorder) *ReservationService {
	s.effects.audit = audit
	return s
}

func (s *ReservationService) WithNotifier(n NotificationScheduler) *ReservationService {
	s.effects.notifier = n
	return s
}

func (s *ReservationService) WithEvents(events EventPublisher) *ReservationService {
	s.effects.events = events
	return s
}

// WithClock overrides the time source used to decide what "today" is.
func (s *ReservationService) WithClock(clock func() time.Time) *ReservationService {
	s.clock = clock
	return s
}

// Create places a hold on a title for a date window.
func (s *ReservationService) Create(ctx context.Context, in models.CreateReservationInput, actor models.Actor) (*models.Reservation, error) {
	settings, err := s.settings.LibrarySettings(ctx)
	if err != nil {
		return nil, err
	}

	if !in.ReservedTo.After(in.ReservedFrom) {
		return nil, apperrors.ErrInvalidWindow
	}
	if in.ReservedFrom.Before(today(s.clock, settings)) {
		return nil, apperrors.ErrWindowInPast
	}
	if in.ReservedFrom.DaysUntil(in.ReservedTo) > settings.MaxIssueDuration {
		return nil, apperrors.ErrWindowTooLong
	}
	pickup := in.PickupDuration
	if pickup <= 0 {
		pickup = models.DefaultPickupDuration
	}

	var created queries.Reservation
	err = s.store.ExecTx(ctx, func(q queries.Querier) error {
		if _, err := activeMember(ctx, q, in.MemberID, false); err != nil {
			return err
		}
		book, err := q.GetBook(ctx, in.BookID)
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrBookNotFound
			}
			return fmt.Errorf("failed to get book: %w", err)
		}
		if models.BookStatus(book.Status) != models.BookStatusActive {
			return apperrors.ErrBookInactive
		}

		pending, err := q.HasPendingReservation(ctx, queries.HasPendingReservationParams{MemberID: in.MemberID, BookID: in.BookID})
		if err != nil {
			return fmt.Errorf("failed to check pending reservations: %w", err)
		}
		if pending {
			return apperrors.ErrDuplicateHold
		}
		open, err := q.HasOpenLoan(ctx, queries.HasOpenLoanParams{MemberID: in.MemberID, BookID: in.BookID})
		if err != nil {
			return fmt.Errorf("failed to check open loans: %w", err)
		}
		if open {
			return apperrors.ErrDuplicateHold
		}

		created, err = q.CreateReservation(ctx, queries.CreateReservationParams{
			MemberID:       in.MemberID,
			BookID:         in.BookID,
			ReservedFrom:   pgDate(in.ReservedFrom),
			ReservedTo:     pgDate(in.ReservedTo),
			PickupDuration: pickup,
			Notes:          textOrNull(in.Notes),
		})
		if err != nil {
			if uniqueViolation(err, "reservations_one_pending_idx") {
				return apperrors.ErrDuplicateHold
			}
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation("reservation_create", err)
	if err != nil {
		return nil, err
	}

	reservation := reservationFromRow(created)
	s.effects.logger.Info("Reservation created",
		"reservation_id", reservation.ID,
		"member_id", reservation.MemberID,
		"book_id", reservation.BookID,
	)
	s.effects.record(ctx, actor, models.EventReservationRequested, fmt.Sprintf(
		"Reservation #%d requested by member %d for book %d from %s to %s",
		reservation.ID, reservation.MemberID, reservation.BookID, reservation.ReservedFrom, reservation.ReservedTo,
	))
	s.effects.dependency("notifier", s.effects.notifier.ReservationRequested(ctx, reservation))
	s.effects.publish(ctx, models.RoutingReservationCreated, reservation)
	return reservation, nil
}

// Fulfill sets a copy aside for a pending hold.
func (s *ReservationService) Fulfill(ctx context.Context, id int32, actor models.Actor) (*models.Reservation, error) {
	var updated queries.Reservation
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		r, err := lockReservation(ctx, q, id)
		if err != nil {
			return err
		}
		if models.ReservationStatus(r.Status) != models.ReservationStatusPending {
			return apperrors.ErrNotPending
		}

		book, err := q.GetBookForUpdate(ctx, r.BookID)
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrBookNotFound
			}
			return fmt.Errorf("failed to lock book: %w", err)
		}
		if book.AvailableCopies < 1 {
			return apperrors.ErrNoCopiesAvailable
		}
		if err := takeCopy(ctx, q, book.ID); err != nil {
			return err
		}

		updated, err = q.UpdateReservationStatus(ctx, queries.UpdateReservationStatusParams{
			ID:     id,
			Status: string(models.ReservationStatusFulfilled),
		})
		if err != nil {
			return fmt.Errorf("failed to fulfil reservation: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation("reservation_fulfill", err)
	if err != nil {
		return nil, err
	}

	reservation := reservationFromRow(updated)
	s.effects.logger.Info("Reservation fulfilled", "reservation_id", id, "actor_id", actor.UserID)
	s.effects.dependency("notifier", s.effects.notifier.ReservationReady(ctx, reservation))
	s.effects.record(ctx, actor, models.EventReservationFulfilled, fmt.Sprintf(
		"Reservation #%d fulfilled for member %d", reservation.ID, reservation.MemberID,
	))
	s.effects.publish(ctx, models.RoutingReservationFulfilled, reservation)
	return reservation, nil
}

// Issue converts a fulfilled hold into a loan. The copy was taken off the
// shelf at fulfilment, so availability is not touched again.
func (s *ReservationService) Issue(ctx context.Context, id int32, issueDate, dueDate models.Date, actor models.Actor) (*models.Loan, error) {
	settings, err := s.settings.LibrarySettings(ctx)
	if err != nil {
		return nil, err
	}

	var loan queries.Loan
	var reservation queries.Reservation
	err = s.store.ExecTx(ctx, func(q queries.Querier) error {
		r, err := lockReservation(ctx, q, id)
		if err != nil {
			return err
		}
		if models.ReservationStatus(r.Status) != models.ReservationStatusFulfilled {
			return apperrors.ErrNotFulfilled
		}
		if err := validateLoanDates(issueDate, dueDate, settings.MaxIssueDuration); err != nil {
			return err
		}
		if _, err := activeMember(ctx, q, r.MemberID, false); err != nil {
			return err
		}

		loan, err = openLoan(ctx, q, settings, queries.CreateLoanParams{
			BookID:        r.BookID,
			MemberID:      r.MemberID,
			ReservationID: pgtype.Int4{Int32: r.ID, Valid: true},
			IssueDate:     pgDate(issueDate),
			DueDate:       pgDate(dueDate),
		})
		if err != nil {
			return err
		}

		reservation, err = q.UpdateReservationStatus(ctx, queries.UpdateReservationStatusParams{
			ID:     id,
			Status: string(models.ReservationStatusIssued),
		})
		if err != nil {
			return fmt.Errorf("failed to mark reservation issued: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation("reservation_issue", err)
	if err != nil {
		return nil, err
	}

	issued := loanFromRow(loan)
	s.effects.record(ctx, actor, models.EventReservationIssued, fmt.Sprintf(
		"Reservation #%d issued as loan #%d", id, issued.ID,
	))
	s.effects.publish(ctx, models.RoutingReservationIssued, reservationFromRow(reservation))
	announceLoan(ctx, s.effects, actor, issued)
	return issued, nil
}

// Cancel withdraws a pending hold. Only the member who placed it may cancel.
func (s *ReservationService) Cancel(ctx context.Context, id int32, requester models.Actor) (*models.Reservation, error) {
	var updated queries.Reservation
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		r, err := lockReservation(ctx, q, id)
		if err != nil {
			return err
		}
		if requester.MemberID == 0 || requester.MemberID != r.MemberID {
			return apperrors.ErrNotOwner
		}
		if models.ReservationStatus(r.Status) != models.ReservationStatusPending {
			return apperrors.ErrNotPending
		}
		updated, err = q.UpdateReservationStatus(ctx, queries.UpdateReservationStatusParams{
			ID:     id,
			Status: string(models.ReservationStatusCancelled),
		})
		if err != nil {
			return fmt.Errorf("failed to cancel reservation: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation("reservation_cancel", err)
	if err != nil {
		return nil, err
	}

	reservation := reservationFromRow(updated)
	s.effects.record(ctx, requester, models.EventReservationCancelled, fmt.Sprintf(
		"Reservation #%d cancelled by member %d", id, requester.MemberID,
	))
	s.effects.publish(ctx, models.RoutingReservationCancelled, reservation)
	return reservation, nil
}

// SweepStale cancels every pending hold whose window started more than the
// configured stale period before now. Running it twice cancels nothing new.
func (s *ReservationService) SweepStale(ctx context.Context, now time.Time) (models.SweepResult, error) {
	settings, err := s.settings.LibrarySettings(ctx)
	if err != nil {
		return models.SweepResult{}, err
	}
	cutoff := staleCutoff(now.In(settings.Location).Add(-settings.StaleAfter))

	ids, err := s.store.CancelStaleReservations(ctx, pgDate(cutoff))
	metrics.ObserveOperation("reservation_sweep", err)
	if err != nil {
		return models.SweepResult{}, fmt.Errorf("failed to cancel stale reservations: %w", err)
	}
	if ids == nil {
		ids = []int32{}
	}

	result := models.SweepResult{Count: len(ids), IDs: ids}
	if result.Count > 0 {
		metrics.SweptRecords.WithLabelValues("stale_reservations").Add(float64(result.Count))
		s.effects.logger.Info("Stale reservations cancelled", "count", result.Count, "cutoff", cutoff.String())
		s.effects.record(ctx, models.SystemActor, models.EventReservationsAutoCancelled,
			fmt.Sprintf("Auto-cancelled %d stale reservation(s)", result.Count))
		s.effects.publish(ctx, models.RoutingReservationCancelled, result)
	}
	return result, nil
}

// staleCutoff returns the first date whose window starts at or after
// threshold. Holds dated before it started strictly before threshold.
func staleCutoff(threshold time.Time) models.Date {
	cutoff := models.DateOf(threshold)
	y, m, d := threshold.Date()
	if !threshold.Equal(time.Date(y, m, d, 0, 0, 0, 0, threshold.Location())) {
		cutoff = cutoff.AddDays(1)
	}
	return cutoff
}

func (s *ReservationService) Get(ctx context.Context, id int32) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return reservationFromRow(r), nil
}

func (s *ReservationService) ListByMember(ctx context.Context, memberID int32, page, limit int) ([]*models.Reservation, models.Pagination, error) {
	page, limit = pageBounds(page, limit)
	total, err := s.store.CountReservationsByMember(ctx, memberID)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count reservations: %w", err)
	}
	rows, err := s.store.ListReservationsByMember(ctx, queries.ListReservationsByMemberParams{
		MemberID: memberID,
		Limit:    int32(limit),
		Offset:   int32((page - 1) * limit),
	})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservationsFromRows(rows), models.NewPagination(page, limit, total), nil
}

// List returns holds matching a staff filter.
func (s *ReservationService) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, models.Pagination, error) {
	page, limit := pageBounds(filter.Page, filter.Limit)
	f := queries.ReservationFilter{
		Status:   filter.Status,
		MemberID: filter.MemberID,
		BookID:   filter.BookID,
		Limit:    int32(limit),
		Offset:   int32((page - 1) * limit),
	}
	if filter.From != "" {
		from, err := models.ParseDate(filter.From)
		if err != nil {
			return nil, models.Pagination{}, apperrors.Wrap(apperrors.KindValidation, apperrors.CodeValidation, err, "invalid from date")
		}
		f.FromDate = pgDate(from)
	}
	if filter.To != "" {
		to, err := models.ParseDate(filter.To)
		if err != nil {
			return nil, models.Pagination{}, apperrors.Wrap(apperrors.KindValidation, apperrors.CodeValidation, err, "invalid to date")
		}
		f.ToDate = pgDate(to)
	}

	total, err := s.store.CountReservations(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count reservations: %w", err)
	}
	rows, err := s.store.ListReservations(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservationsFromRows(rows), models.NewPagination(page, limit, total), nil
}

func lockReservation(ctx context.Context, q queries.Querier, id int32) (queries.Reservation, error) {
	r, err := q.GetReservationForUpdate(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return queries.Reservation{}, apperrors.ErrReservationNotFound
		}
		return queries.Reservation{}, fmt.Errorf("failed to lock reservation: %w", err)
	}
	return r, nil
}

// activeMember loads a member, optionally locking the row, and rejects
// deactivated accounts.
func activeMember(ctx context.Context, q queries.Querier, id int32, lock bool) (queries.Member, error) {
	get := q.GetMember
	if lock {
		get = q.GetMemberForUpdate
	}
	m, err := get(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return queries.Member{}, apperrors.ErrMemberNotFound
		}
		return queries.Member{}, fmt.Errorf("failed to get member: %w", err)
	}
	if !m.IsActive {
		return queries.Member{}, apperrors.ErrMemberInactive
	}
	return m, nil
}

// lockMember takes the member row lock. Every transaction that writes fines
// takes it before any fine row.
func lockMember(ctx context.Context, q queries.Querier, id int32) (queries.Member, error) {
	m, err := q.GetMemberForUpdate(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return queries.Member{}, apperrors.ErrMemberNotFound
		}
		return queries.Member{}, fmt.Errorf("failed to lock member: %w", err)
	}
	return m, nil
}

// takeCopy decrements availability of a locked book row.
func takeCopy(ctx context.Context, q queries.Querier, bookID int32) error {
	n, err := q.DecrementAvailableCopies(ctx, bookID)
	if err != nil {
		return fmt.Errorf("failed to decrement available copies: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNoCopiesAvailable
	}
	return nil
}

func today(clock func() time.Time, settings models.LibrarySettings) models.Date {
	loc := settings.Location
	if loc == nil {
		loc = time.UTC
	}
	return models.DateOf(clock().In(loc))
}

func reservationsFromRows(rows []queries.Reservation) []*models.Reservation {
	out := make([]*models.Reservation, 0, len(rows))
	for _, r := range rows {
		out = append(out, reservationFromRow(r))
	}
	return out
}
