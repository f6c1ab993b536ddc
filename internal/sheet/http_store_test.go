package sheet

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"sheets-catalog-connector/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func throttlingServer(t *testing.T, throttledResponses int32, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(requests, 1)
		assert.Equal(t, "tenant-1", r.Header.Get("X-Tenant-Id"))
		if n <= throttledResponses {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestWriteRangeRetriesOnceWhenThrottled(t *testing.T) {
	var requests int32
	server := throttlingServer(t, 1, &requests)
	defer server.Close()

	store := NewHTTPStore(server.URL, 10*time.Millisecond, quietLogger())
	err := store.WriteRange(context.Background(), models.Tenant{ID: "tenant-1"}, "f1", "A2:B3",
		[][]interface{}{{"Done", "ok"}})

	assert.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestWriteRangeUnresolvedThrottleIsLoggedNotFatal(t *testing.T) {
	var requests int32
	server := throttlingServer(t, 2, &requests)
	defer server.Close()

	store := NewHTTPStore(server.URL, 10*time.Millisecond, quietLogger())
	err := store.WriteRange(context.Background(), models.Tenant{ID: "tenant-1"}, "f1", "A2:B3",
		[][]interface{}{{"Done", "ok"}})

	// A range still throttled after its single retry stays unwritten and the
	// caller moves on. Exactly two attempts, never a third.
	assert.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestWriteRangeNoRetryOnSuccess(t *testing.T) {
	var requests int32
	server := throttlingServer(t, 0, &requests)
	defer server.Close()

	store := NewHTTPStore(server.URL, 10*time.Millisecond, quietLogger())
	err := store.WriteRange(context.Background(), models.Tenant{ID: "tenant-1"}, "f1", "A2:B3",
		[][]interface{}{{"Done", "ok"}})

	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestWriteRangeServerErrorIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewHTTPStore(server.URL, 10*time.Millisecond, quietLogger())
	err := store.WriteRange(context.Background(), models.Tenant{ID: "tenant-1"}, "f1", "A2:B3",
		[][]interface{}{{"Done", "ok"}})

	assert.Error(t, err)
}
