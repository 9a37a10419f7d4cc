package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersExposed(t *testing.T) {
	before := testutil.ToFloat64(Bids.WithLabelValues("accepted"))
	Bids.WithLabelValues("accepted").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Bids.WithLabelValues("accepted")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "superloja_auction_bids_total"))
}
