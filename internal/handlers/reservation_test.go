package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/policy"
)

type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) Create(ctx context.Context, in models.CreateReservationInput, actor models.Actor) (*models.Reservation, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) Fulfill(ctx context.Context, id int32, actor models.Actor) (*models.Reservation, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) Issue(ctx context.Context, id int32, issueDate, dueDate models.Date, actor models.Actor) (*models.Loan, error) {
	args := m.Called(ctx, id, issueDate, dueDate, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Loan), args.Error(1)
}

func (m *MockReservationService) Cancel(ctx context.Context, id int32, requester models.Actor) (*models.Reservation, error) {
	args := m.Called(ctx, id, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) Get(ctx context.Context, id int32) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) ListByMember(ctx context.Context, memberID int32, page, limit int) ([]*models.Reservation, models.Pagination, error) {
	args := m.Called(ctx, memberID, page, limit)
	return args.Get(0).([]*models.Reservation), args.Get(1).(models.Pagination), args.Error(2)
}

func (m *MockReservationService) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, models.Pagination, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Reservation), args.Get(1).(models.Pagination), args.Error(2)
}

func reservationRouter(svc *MockReservationService, actor *models.Actor) http.Handler {
	h := NewReservationHandler(svc, policy.NewRolePolicy())
	r := newRouter(actor)
	r.POST("/reservations", h.CreateReservation)
	r.GET("/reservations", h.ListReservations)
	r.GET("/reservations/:id", h.GetReservation)
	r.POST("/reservations/:id/fulfill", h.FulfillReservation)
	r.POST("/reservations/:id/issue", h.IssueReservation)
	r.POST("/reservations/:id/cancel", h.CancelReservation)
	r.GET("/members/:id/reservations", h.ListMemberReservations)
	return r
}

func TestReservationHandler_CreateReservation(t *testing.T) {
	body := map[string]interface{}{
		"book_id":       3,
		"reserved_from": "2026-11-02",
		"reserved_to":   "2026-11-09",
	}

	t.Run("member reserves for themselves", func(t *testing.T) {
		svc := new(MockReservationService)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(in models.CreateReservationInput) bool {
			return in.MemberID == 7 && in.BookID == 3 &&
				in.ReservedFrom.String() == "2026-11-02" && in.ReservedTo.String() == "2026-11-09"
		}), memberActor).Return(&models.Reservation{ID: 1, MemberID: 7, BookID: 3, Status: models.ReservationStatusPending}, nil)

		w := perform(t, reservationRouter(svc, actorPtr(memberActor)), http.MethodPost, "/reservations", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("member cannot reserve for someone else", func(t *testing.T) {
		svc := new(MockReservationService)
		withOther := map[string]interface{}{"member_id": 8, "book_id": 3, "reserved_from": "2026-11-02", "reserved_to": "2026-11-09"}

		w := perform(t, reservationRouter(svc, actorPtr(memberActor)), http.MethodPost, "/reservations", withOther)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("staff must name the member", func(t *testing.T) {
		svc := new(MockReservationService)
		w := perform(t, reservationRouter(svc, actorPtr(managerActor)), http.MethodPost, "/reservations", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		svc := new(MockReservationService)
		bad := map[string]interface{}{"book_id": 3, "reserved_from": "02-11-2026", "reserved_to": "2026-11-09"}
		w := perform(t, reservationRouter(svc, actorPtr(memberActor)), http.MethodPost, "/reservations", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CodeValidation, errorCode(t, w))
	})

	t.Run("duplicate hold", func(t *testing.T) {
		svc := new(MockReservationService)
		svc.On("Create", mock.Anything, mock.Anything, memberActor).Return(nil, apperrors.ErrDuplicateHold)

		w := perform(t, reservationRouter(svc, actorPtr(memberActor)), http.MethodPost, "/reservations", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperrors.CodeDuplicateHold, errorCode(t, w))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(MockReservationService)
		w := perform(t, reservationRouter(svc, nil), http.MethodPost, "/reservations", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestReservationHandler_GetReservation(t *testing.T) {
	svc := new(MockReservationService)
	svc.On("Get", mock.Anything, int32(4)).Return(&models.Reservation{ID: 4, MemberID: 7}, nil)

	w := perform(t, reservationRouter(svc, actorPtr(memberActor)), http.MethodGet, "/reservations/4", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, reservationRouter(svc, actorPtr(otherMember)), http.MethodGet, "/reservations/4", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(t, reservationRouter(svc, actorPtr(managerActor)), http.MethodGet, "/reservations/4", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, reservationRouter(svc, actorPtr(managerActor)), http.MethodGet, "/reservations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservationHandler_CancelReservation(t *testing.T) {
	t.Run("owner cancels", func(t *testing.T) {
		svc := new(MockReservationService)
		svc.On("Cancel", mock.Anything, int32(4), memberActor).
			Return(&models.Reservation{ID: 4, MemberID: 7, Status: models.ReservationStatusCancelled}, nil)

		w := perform(t, reservationRouter(svc, actorPtr(memberActor)), http.MethodPost, "/reservations/4/cancel", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("someone else's hold", func(t *testing.T) {
		svc := new(MockReservationService)
		svc.On("Cancel", mock.Anything, int32(4), otherMember).Return(nil, apperrors.ErrNotOwner)

		w := perform(t, reservationRouter(svc, actorPtr(otherMember)), http.MethodPost, "/reservations/4/cancel", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperrors.CodeNotOwner, errorCode(t, w))
	})

	t.Run("not pending", func(t *testing.T) {
		svc := new(MockReservationService)
		svc.On("Cancel", mock.Anything, int32(4), memberActor).Return(nil, apperrors.ErrNotPending)

		w := perform(t, reservationRouter(svc, actorPtr(memberActor)), http.MethodPost, "/reservations/4/cancel", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestReservationHandler_StaffTransitions(t *testing.T) {
	t.Run("member cannot fulfil", func(t *testing.T) {
		svc := new(MockReservationService)
		w := perform(t, reservationRouter(svc, actorPtr(memberActor)), http.MethodPost, "/reservations/4/fulfill", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("manager fulfils", func(t *testing.T) {
		svc := new(MockReservationService)
		svc.On("Fulfill", mock.Anything, int32(4), managerActor).
			Return(&models.Reservation{ID: 4, Status: models.ReservationStatusFulfilled}, nil)
		w := perform(t, reservationRouter(svc, actorPtr(managerActor)), http.MethodPost, "/reservations/4/fulfill", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no copies", func(t *testing.T) {
		svc := new(MockReservationService)
		svc.On("Fulfill", mock.Anything, int32(4), managerActor).Return(nil, apperrors.ErrNoCopiesAvailable)
		w := perform(t, reservationRouter(svc, actorPtr(managerActor)), http.MethodPost, "/reservations/4/fulfill", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperrors.CodeNoCopiesAvailable, errorCode(t, w))
	})

	t.Run("issue converts to loan", func(t *testing.T) {
		svc := new(MockReservationService)
		svc.On("Issue", mock.Anything, int32(4),
			mock.MatchedBy(func(d models.Date) bool { return d.String() == "2026-11-02" }),
			mock.MatchedBy(func(d models.Date) bool { return d.String() == "2026-11-16" }),
			managerActor,
		).Return(&models.Loan{ID: 11, BookID: 3, MemberID: 7}, nil)

		w := perform(t, reservationRouter(svc, actorPtr(managerActor)), http.MethodPost, "/reservations/4/issue",
			map[string]string{"issue_date": "2026-11-02", "due_date": "2026-11-16"})

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("issue needs dates", func(t *testing.T) {
		svc := new(MockReservationService)
		w := perform(t, reservationRouter(svc, actorPtr(managerActor)), http.MethodPost, "/reservations/4/issue",
			map[string]string{"issue_date": "2026-11-02"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReservationHandler_Listings(t *testing.T) {
	svc := new(MockReservationService)
	svc.On("ListByMember", mock.Anything, int32(7), 2, 10).
		Return([]*models.Reservation{{ID: 1, MemberID: 7}}, models.NewPagination(2, 10, 11), nil)
	svc.On("List", mock.Anything, models.ReservationFilter{Status: "PENDING"}).
		Return([]*models.Reservation{}, models.NewPagination(1, 20, 0), nil)

	w := perform(t, reservationRouter(svc, actorPtr(memberActor)), http.MethodGet, "/members/7/reservations?page=2&limit=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, reservationRouter(svc, actorPtr(otherMember)), http.MethodGet, "/members/7/reservations", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(t, reservationRouter(svc, actorPtr(managerActor)), http.MethodGet, "/reservations?status=PENDING", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, reservationRouter(svc, actorPtr(managerActor)), http.MethodGet, "/reservations?status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}
