package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncTaskProposal("single", ResultAccepted)
	pr.IncTaskProposal("single", ResultAccepted)
	pr.IncTaskProposal("composite", ResultDuplicate)
	pr.IncTaskCompletion("single", ResultCompleted)
	pr.ObserveStoreSave("players", 12*time.Millisecond, 4)
	pr.SetActiveSessions(2)

	require.InDelta(t, 2.0, testutil.ToFloat64(pr.proposals.WithLabelValues("single", "accepted")), 0)
	require.InDelta(t, 4.0, testutil.ToFloat64(pr.storeRows.WithLabelValues("players")), 0)
	require.InDelta(t, 2.0, testutil.ToFloat64(pr.activeSessions), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncTaskProposal("single", ResultAccepted)
	pr.ObserveStoreSave("farms", time.Second, 1)
	pr.SetActiveSessions(1)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).SetActiveSessions(3)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "farmworlds_active_sessions 3"))
}
