package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"kllc.dev/kllc/internal/metrics"
)

type stubVCS struct{ err error }

func (s stubVCS) CurrentBranch(context.Context) (string, error) { return "main", s.err }
func (s stubVCS) IsClean(context.Context) (bool, error) { return true, s.err }
func (s stubVCS) CreateBranch(context.Context, string, string) error { return s.err }
func (s stubVCS) Commit(context.Context, string) error { return s.err }
func (s stubVCS) Tag(context.Context, string) error { return s.err }

func TestObserveIntent(t *testing.T) {
	m := metrics.New()
	m.ObserveIntent("ready", "ok")
	m.ObserveIntent("ready", "ok")
	m.ObserveIntent("saveState", "E006")

	expected := `
# HELP kllc_intents_total Intents handled by the channel, by command and outcome code.
# TYPE kllc_intents_total counter
kllc_intents_total{command="ready",outcome="ok"} 2
kllc_intents_total{command="saveState",outcome="E006"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "kllc_intents_total"))
}

func TestInstrumentVCS(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()

	ok := metrics.InstrumentVCS(stubVCS{}, m)
	branch, err := ok.CurrentBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, "main", branch)
	require.NoError(t, ok.Commit(ctx, "msg"))

	failing := metrics.InstrumentVCS(stubVCS{err: errors.New("boom")}, m)
	require.Error(t, failing.Tag(ctx, "v1"))

	count, err := testutil.GatherAndCount(m.Registry(), "kllc_vcs_operation_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 3, count)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `kllc_vcs_operation_duration_seconds_count{operation="tag",result="error"} 1`)
}
