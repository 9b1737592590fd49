package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("")

	c.PersonRegistered("member")
	c.PersonRegistered("member")
	c.PersonRegistered("staff")
	c.LoanCreated()
	c.LoanCreated()
	c.LoanReturned()
	c.LoanExtended()
	c.LineRejected("age_restricted")
	c.StockAdjusted(-2)
	c.StockAdjusted(3)
	c.LoginFailed()

	require.Equal(t, 2.0, testutil.ToFloat64(c.registrations.WithLabelValues("member")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.registrations.WithLabelValues("staff")))
	require.Equal(t, 2.0, testutil.ToFloat64(c.loansCreated))
	require.Equal(t, 1.0, testutil.ToFloat64(c.loansReturned))
	require.Equal(t, 1.0, testutil.ToFloat64(c.activeLoans))
	require.Equal(t, 1.0, testutil.ToFloat64(c.loansExtended))
	require.Equal(t, 1.0, testutil.ToFloat64(c.linesRejected.WithLabelValues("age_restricted")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.stockAdjustments.WithLabelValues("out")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.stockAdjustments.WithLabelValues("in")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.loginFailures))
}

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector("lib")
	c.LoanCreated()
	c.PersonRegistered("staff")

	samples, err := c.Snapshot()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, s := range samples {
		got[s.Name] = s.Value
	}
	require.Equal(t, 1.0, got["lib_loans_created_total"])
	require.Equal(t, 1.0, got["lib_loans_open"])
	require.Equal(t, 1.0, got[`lib_persons_registered_total{role=staff}`])
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.LoanCreated()
	c.LineRejected("x")
	samples, err := c.Snapshot()
	require.NoError(t, err)
	require.Nil(t, samples)
}
