package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/colivsplit/internal/config"
	"github.com/mmynk/colivsplit/internal/models"
)

type fakeGenerator struct {
	errs  []error
	calls int
}

func (f *fakeGenerator) GenerateMonthlyInvoices(ctx context.Context, period models.Period) (int, error) {
	f.calls++
	if len(f.errs) == 0 {
		return 1, nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return 0, err
}

var march = models.Period{Year: 2024, Month: time.March}

func TestRunBillingRetries(t *testing.T) {
	cfg := &config.Config{BillingMaxRetries: 2, BillingRetryDelay: time.Millisecond}

	t.Run("succeeds after transient errors", func(t *testing.T) {
		gen := &fakeGenerator{errs: []error{errors.New("database is locked"), errors.New("database is locked")}}
		require.NoError(t, runBilling(context.Background(), gen, march, cfg))
		assert.Equal(t, 3, gen.calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		boom := errors.New("disk I/O error")
		gen := &fakeGenerator{errs: []error{boom, boom, boom, boom}}
		err := runBilling(context.Background(), gen, march, cfg)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, gen.calls)
	})

	t.Run("stops when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		gen := &fakeGenerator{errs: []error{context.Canceled}}
		err := runBilling(ctx, gen, march, &config.Config{BillingMaxRetries: 5, BillingRetryDelay: time.Hour})
		assert.Error(t, err)
		assert.Equal(t, 1, gen.calls)
	})
}

func TestMetricsMux(t *testing.T) {
	server := httptest.NewServer(loggingMiddleware(metricsMux()))
	defer server.Close()

	for _, path := range []string{"/metrics", "/healthz"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestShutdownServerReportsTimeout(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	})}
	go server.Serve(listener)
	defer close(release)

	go http.Get("http://" + listener.Addr().String() + "/slow")
	<-started

	err = shutdownServer(server, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShutdownServerIdle(t *testing.T) {
	server := &http.Server{Handler: metricsMux()}
	assert.NoError(t, shutdownServer(server, time.Second))
}
