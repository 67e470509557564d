package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_DaysUntil(t *testing.T) {
	due := NewDate(2025, time.June, 10)

	assert.Equal(t, 5, due.DaysUntil(NewDate(2025, time.June, 15)))
	assert.Equal(t, 0, due.DaysUntil(due))
	assert.Equal(t, -9, due.DaysUntil(NewDate(2025, time.June, 1)))
	// spans a month boundary
	assert.Equal(t, 21, due.DaysUntil(NewDate(2025, time.July, 1)))
}

func TestDateOf_UsesLocalCalendarDay(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	late := time.Date(2025, 6, 1, 22, 30, 0, 0, time.UTC).In(nairobi)

	assert.Equal(t, "2025-06-02", DateOf(late).String())
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		From Date  `json:"from"`
		To   *Date `json:"to"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"from":"2025-06-01","to":null}`), &payload))
	assert.Equal(t, NewDate(2025, time.June, 1), payload.From)
	assert.Nil(t, payload.To)

	out, err := json.Marshal(payload.From)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-01"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"from":"01/06/2025"}`), &payload))
}

func TestReservationStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to ReservationStatus
		want     bool
	}{
		{ReservationStatusPending, ReservationStatusFulfilled, true},
		{ReservationStatusPending, ReservationStatusCancelled, true},
		{ReservationStatusPending, ReservationStatusIssued, false},
		{ReservationStatusFulfilled, ReservationStatusIssued, true},
		{ReservationStatusFulfilled, ReservationStatusCancelled, false},
		{ReservationStatusIssued, ReservationStatusCancelled, false},
		{ReservationStatusCancelled, ReservationStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, ReservationStatusIssued.Terminal())
	assert.True(t, ReservationStatusCancelled.Terminal())
	assert.False(t, ReservationStatusPending.Terminal())
	assert.False(t, ReservationStatus("EXPIRED").Valid())
}

func TestLoanStatus_Transitions(t *testing.T) {
	assert.True(t, LoanStatusIssued.CanTransitionTo(LoanStatusOverdue))
	assert.True(t, LoanStatusOverdue.CanTransitionTo(LoanStatusReturned))
	assert.False(t, LoanStatusOverdue.CanTransitionTo(LoanStatusIssued))
	assert.False(t, LoanStatusReturned.CanTransitionTo(LoanStatusLost))

	assert.True(t, LoanStatusLost.ChargesPrice())
	assert.True(t, LoanStatusWriteOff.ChargesPrice())
	assert.False(t, LoanStatusReturned.ChargesPrice())
	assert.False(t, LoanStatusOverdue.IsResolution())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPagination(0, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 0, p.TotalPages)
}
