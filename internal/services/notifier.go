package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/models"
)

// NotifierQuerier defines the lookups needed to address a notification
type NotifierQuerier interface {
	GetMemberContact(ctx context.Context, id int32) (queries.GetMemberContactRow, error)
	GetBook(ctx context.Context, id int32) (queries.Book, error)
}

// Notifier turns lifecycle transitions into queued jobs, honouring the
// notification toggles.
type Notifier struct {
	queue         TaskQueue
	queries       NotifierQuerier
	settings      SettingsProvider
	daysBeforeDue int
	clock         func() time.Time
}

func NewNotifier(queue TaskQueue, q NotifierQuerier, settings SettingsProvider, daysBeforeDue int) *Notifier {
	return &Notifier{
		queue:         queue,
		queries:       q,
		settings:      settings,
		daysBeforeDue: daysBeforeDue,
		clock:         time.Now,
	}
}

func (n *Notifier) WithClock(clock func() time.Time) *Notifier {
	n.clock = clock
	return n
}

func (n *Notifier) ReservationRequested(ctx context.Context, r *models.Reservation) error {
	toggles, err := n.settings.NotificationSettings(ctx)
	if err != nil || !toggles.OnReservationRequest {
		return err
	}
	job, err := n.job(ctx, r.MemberID, r.BookID, fmt.Sprintf("reservation_request_%d", r.ID), models.TemplateReservationRequest)
	if err != nil {
		return err
	}
	job.Context["reservation_id"] = strconv.Itoa(int(r.ID))
	job.Context["reserved_from"] = r.ReservedFrom.String()
	job.Context["reserved_to"] = r.ReservedTo.String()
	return n.queue.Enqueue(ctx, job)
}

func (n *Notifier) ReservationReady(ctx context.Context, r *models.Reservation) error {
	toggles, err := n.settings.NotificationSettings(ctx)
	if err != nil || !toggles.OnReservationReady {
		return err
	}
	job, err := n.job(ctx, r.MemberID, r.BookID, fmt.Sprintf("reservation_notify_%d", r.ID), models.TemplateReservationReady)
	if err != nil {
		return err
	}
	job.Context["reservation_id"] = strconv.Itoa(int(r.ID))
	job.Context["pickup_days"] = strconv.Itoa(int(r.PickupDuration))
	return n.queue.Enqueue(ctx, job)
}

// LoanIssued queues the issue confirmation and the due-date reminder.
func (n *Notifier) LoanIssued(ctx context.Context, loan *models.Loan) error {
	toggles, err := n.settings.NotificationSettings(ctx)
	if err != nil {
		return err
	}
	if !toggles.OnBookIssue && !toggles.OnDueReminder {
		return nil
	}

	var errs []error
	if toggles.OnBookIssue {
		job, err := n.job(ctx, loan.MemberID, loan.BookID, fmt.Sprintf("issue_notify_%d", loan.ID), models.TemplateBookIssued)
		if err == nil {
			job.Context["loan_id"] = strconv.Itoa(int(loan.ID))
			job.Context["due_date"] = loan.DueDate.String()
			err = n.queue.Enqueue(ctx, job)
		}
		errs = append(errs, err)
	}
	if toggles.OnDueReminder {
		job, err := n.job(ctx, loan.MemberID, loan.BookID, fmt.Sprintf("due_notify_%d", loan.ID), models.TemplateDueReminder)
		if err == nil {
			job.RunAt = n.reminderTime(loan.DueDate)
			job.Context["loan_id"] = strconv.Itoa(int(loan.ID))
			job.Context["due_date"] = loan.DueDate.String()
			err = n.queue.Enqueue(ctx, job)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (n *Notifier) FineImposed(ctx context.Context, loan *models.Loan, fine *models.Fine) error {
	toggles, err := n.settings.NotificationSettings(ctx)
	if err != nil || !toggles.OnFineImposition {
		return err
	}
	job, err := n.job(ctx, loan.MemberID, loan.BookID, fmt.Sprintf("fine_notify_%d", loan.ID), models.TemplateFineImposed)
	if err != nil {
		return err
	}
	job.Context["loan_id"] = strconv.Itoa(int(loan.ID))
	job.Context["amount"] = fine.Amount.StringFixed(2)
	job.Context["remaining"] = fine.RemainingFines.StringFixed(2)
	return n.queue.Enqueue(ctx, job)
}

func (n *Notifier) FinesCollected(ctx context.Context, result *models.CollectionResult) error {
	toggles, err := n.settings.NotificationSettings(ctx)
	if err != nil || !toggles.OnFineCollection {
		return err
	}
	key := fmt.Sprintf("fine_collection_%d_%d", result.MemberID, n.clock().Unix())
	job, err := n.job(ctx, result.MemberID, 0, key, models.TemplateFineCollected)
	if err != nil {
		return err
	}
	job.Context["fines"] = strconv.Itoa(len(result.Allocations))
	job.Context["fully_paid"] = strconv.FormatBool(result.AllFullyPaidSelected)
	return n.queue.Enqueue(ctx, job)
}

// job addresses a job to the member; bookID 0 skips the title lookup.
func (n *Notifier) job(ctx context.Context, memberID, bookID int32, key, template string) (Job, error) {
	contact, err := n.queries.GetMemberContact(ctx, memberID)
	if err != nil {
		return Job{}, fmt.Errorf("failed to load contact for member %d: %w", memberID, err)
	}
	job := Job{
		Key:        key,
		TemplateID: template,
		Recipient:  contact.Email,
		RunAt:      n.clock(),
		Context: map[string]string{
			"username":    contact.Username,
			"member_code": contact.MemberCode,
		},
	}
	if bookID != 0 {
		book, err := n.queries.GetBook(ctx, bookID)
		if err != nil {
			return Job{}, fmt.Errorf("failed to load book %d: %w", bookID, err)
		}
		job.Context["book_title"] = book.Title
	}
	return job, nil
}

// reminderTime is the start of the day daysBeforeDue ahead of the due date,
// or now when that has already passed.
func (n *Notifier) reminderTime(due models.Date) time.Time {
	at := due.AddDays(-n.daysBeforeDue).Time()
	if now := n.clock(); at.Before(now) {
		return now
	}
	return at
}
