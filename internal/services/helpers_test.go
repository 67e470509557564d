package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ngenohkevin/circulation/internal/database/mockdb"
	"github.com/ngenohkevin/circulation/internal/models"
)

var (
	staffActor  = models.Actor{UserID: 1, Role: models.RoleManager}
	memberActor = models.Actor{UserID: 9, MemberID: 5, Role: models.RoleMember}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(year int, month time.Month, day, hour int) func() time.Time {
	at := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func testSettings() StaticSettings {
	return StaticSettings{
		Library:       DefaultLibrarySettings(),
		Notifications: models.AllNotifications,
	}
}

func date(s string) models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// callIndex is the position of the first call to method, or -1.
func callIndex(store *mockdb.MockStore, method string) int {
	for i, call := range store.Calls {
		if call.Method == method {
			return i
		}
	}
	return -1
}

func money(s string) pgtype.Numeric {
	return numericFromDecimal(decimal.RequireFromString(s))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sameMoney matches a numeric against an expected decimal amount.
func sameMoney(n pgtype.Numeric, want string) bool {
	return decimalFromNumeric(n).Equal(dec(want))
}

type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Record(ctx context.Context, actorID int32, eventType, description string) error {
	args := m.Called(ctx, actorID, eventType, description)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ReservationRequested(ctx context.Context, r *models.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockNotifier) ReservationReady(ctx context.Context, r *models.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockNotifier) LoanIssued(ctx context.Context, loan *models.Loan) error {
	return m.Called(ctx, loan).Error(0)
}

func (m *MockNotifier) FineImposed(ctx context.Context, loan *models.Loan, fine *models.Fine) error {
	return m.Called(ctx, loan, fine).Error(0)
}

func (m *MockNotifier) FinesCollected(ctx context.Context, result *models.CollectionResult) error {
	return m.Called(ctx, result).Error(0)
}
