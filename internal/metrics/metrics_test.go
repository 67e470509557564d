package metrics

import (
	"errors"
	"testing"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(CirculationOperations.WithLabelValues("loan.issue", "capacity"))
	ObserveOperation("loan.issue", apperrors.ErrNoCopiesAvailable)
	ObserveOperation("loan.issue", nil)
	ObserveOperation("loan.return", errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(CirculationOperations.WithLabelValues("loan.issue", "capacity")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(CirculationOperations.WithLabelValues("loan.issue", "ok")), float64(1))
	assert.GreaterOrEqual(t, testutil.ToFloat64(CirculationOperations.WithLabelValues("loan.return", "internal")), float64(1))
}
