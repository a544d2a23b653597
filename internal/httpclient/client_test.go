package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
)

func TestLoggingRoundTripper(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	require.NoError(t, logger.Init("development", "debug"))

	resp, err := New("razorpay", time.Second).Get(ts.URL + "/v1/orders?secret=x")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestLoggingRoundTripper_Error(t *testing.T) {
	require.NoError(t, logger.Init("development", "debug"))

	_, err := New("telegram", time.Second).Get("http://invalid-host-for-tests.invalid")
	assert.Error(t, err)
}
