package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRefresh(t *testing.T) {
	before := testutil.ToFloat64(RefreshRunsTotal.WithLabelValues("best_effort", ResultPartial))

	RecordRefresh("best_effort", ResultPartial, 3*time.Second)

	after := testutil.ToFloat64(RefreshRunsTotal.WithLabelValues("best_effort", ResultPartial))
	assert.Equal(t, before+1, after)
}

func TestRecordSourceFetch(t *testing.T) {
	before := testutil.ToFloat64(SourceFetchTotal.WithLabelValues("test-source", ResultFailure))

	RecordSourceFetch("test-source", ResultFailure, 250*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(SourceFetchTotal.WithLabelValues("test-source", ResultFailure)))
}

func TestRecordItemRejected(t *testing.T) {
	before := testutil.ToFloat64(ItemsRejectedTotal.WithLabelValues("test-source", "missing_title"))

	RecordItemRejected("test-source", "missing_title")
	RecordItemRejected("test-source", "missing_title")

	assert.Equal(t, before+2, testutil.ToFloat64(ItemsRejectedTotal.WithLabelValues("test-source", "missing_title")))
}

func TestRecordReplace(t *testing.T) {
	before := testutil.ToFloat64(ArticlesReplacedTotal.WithLabelValues("test-source"))

	RecordReplace("test-source", 12)

	assert.Equal(t, before+12, testutil.ToFloat64(ArticlesReplacedTotal.WithLabelValues("test-source")))
}

func TestGauges(t *testing.T) {
	UpdateArticlesCached(42)
	assert.Equal(t, float64(42), testutil.ToFloat64(ArticlesCached))

	UpdateCircuitState("example.com", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitState.WithLabelValues("example.com")))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/articles", "200"))

	RecordHTTPRequest("GET", "/api/articles", 200, 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/articles", "200")))
}

func TestRecordStoreError(t *testing.T) {
	assert.NotPanics(t, func() { RecordStoreError("replace_by_source") })
}
