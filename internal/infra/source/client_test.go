package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"outage_notification_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var group41 = schedule.GroupID{Queue: 4, SubQueue: 1}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	// A generous rate keeps the limiter out of the way.
	return NewClient(srv.URL+"/api/schedule", 2*time.Second, 6000, 1, quietLog())
}

func TestFetchDailyIntervals_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/schedule", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("queue"))
		assert.Equal(t, "1", r.URL.Query().Get("subqueue"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"group":"4.1","date":"2026-10-17","intervals":[
			{"start":"00:00","end":"06:00","status":"off"},
			{"start":"06:00","end":"18:00","status":"on"},
			{"start":"18:00","end":"24:00","status":"maybe"}]}`)
	})

	day, err := client.FetchDailyIntervals(context.Background(), group41)
	require.NoError(t, err)
	require.Len(t, day, 3)
	assert.Equal(t, schedule.StatusOff, day[0].Status)
	assert.Equal(t, 18*time.Hour, day[2].Start)
	assert.Equal(t, schedule.DayLength, day[2].End)
	assert.Equal(t, schedule.StatusMaybe, day[2].Status)
}

func TestFetchDailyIntervals_Failures(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		expectSched error
	}{
		{name: "server error", status: http.StatusBadGateway, body: "bad gateway"},
		{name: "not json", status: http.StatusOK, body: "<html>"},
		{name: "upstream error field", status: http.StatusOK, body: `{"error":"maintenance"}`},
		{name: "wrong group", status: http.StatusOK, body: `{"group":"2.2","intervals":[{"start":"00:00","end":"24:00","status":"on"}]}`},
		{name: "unknown status", status: http.StatusOK, body: `{"intervals":[{"start":"00:00","end":"24:00","status":"possible"}]}`, expectSched: schedule.ErrUnknownStatus},
		{name: "bad clock", status: http.StatusOK, body: `{"intervals":[{"start":"00:00","end":"25:00","status":"on"}]}`, expectSched: schedule.ErrMalformedIntervals},
		{name: "gap", status: http.StatusOK, body: `{"intervals":[{"start":"00:00","end":"12:00","status":"on"},{"start":"13:00","end":"24:00","status":"off"}]}`, expectSched: schedule.ErrMalformedIntervals},
		{name: "empty", status: http.StatusOK, body: `{"intervals":[]}`, expectSched: schedule.ErrMalformedIntervals},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			day, err := client.FetchDailyIntervals(context.Background(), group41)
			assert.Nil(t, day)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSourceFailure)
			if tc.expectSched != nil {
				assert.True(t, errors.Is(err, tc.expectSched), "expected %v in %v", tc.expectSched, err)
			}
		})
	}
}

func TestFetchDailyIntervals_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, 50*time.Millisecond, 6000, 1, quietLog())

	_, err := client.FetchDailyIntervals(context.Background(), group41)
	assert.ErrorIs(t, err, ErrSourceFailure)
}

func TestFetchDailyIntervals_RateLimitHonorsContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"intervals":[{"start":"00:00","end":"24:00","status":"on"}]}`)
	}))
	t.Cleanup(srv.Close)
	// One request per minute: the second call must wait far beyond its deadline.
	client := NewClient(srv.URL, time.Second, 1, 1, quietLog())

	_, err := client.FetchDailyIntervals(context.Background(), group41)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.FetchDailyIntervals(ctx, group41)
	assert.ErrorIs(t, err, ErrSourceFailure)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchDailyIntervals_BurstCoversAllGroups(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"intervals":[{"start":"00:00","end":"24:00","status":"on"}]}`)
	}))
	t.Cleanup(srv.Close)
	groups := schedule.MaxQueue * schedule.MaxSubQueue
	// One request per minute on average, but a full cycle of misses fits in the burst.
	client := NewClient(srv.URL, time.Second, 1, groups, quietLog())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for q := 1; q <= schedule.MaxQueue; q++ {
		for sq := 1; sq <= schedule.MaxSubQueue; sq++ {
			g := schedule.GroupID{Queue: q, SubQueue: sq}
			_, err := client.FetchDailyIntervals(ctx, g)
			require.NoError(t, err, g.String())
		}
	}
	assert.Equal(t, int32(groups), calls.Load())
}
