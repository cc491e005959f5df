package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-rentals-backend/internal/relay"
)

type sseFrame struct {
	event string
	data  string
}

// readFrame returns the next non-comment frame from the stream.
func readFrame(t *testing.T, r *bufio.Reader) sseFrame {
	t.Helper()
	var f sseFrame
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if f.event != "" || f.data != "" {
				return f
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			f.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			f.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsHandler(t *testing.T) {
	f := newAPIFixture(t)
	rt := f.requestRental(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	open := func(t *testing.T, token string) *http.Response {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		t.Cleanup(cancel)
		req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/rentals/"+rt.ID.String()+"/events", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("Stranger is rejected", func(t *testing.T) {
		resp := open(t, f.token(t, f.stranger))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Party receives messages and status changes", func(t *testing.T) {
		resp := open(t, f.token(t, f.owner))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		reader := bufio.NewReader(resp.Body)
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, ": connected\n", line)

		rec := f.do(t, "POST", "/api/rentals/"+rt.ID.String()+"/messages", f.renter, map[string]string{"text": "Is Friday ok?"})
		require.Equal(t, http.StatusCreated, rec.Code)

		frame := readFrame(t, reader)
		assert.Equal(t, relay.EventReceiveMessage, frame.event)
		var ev relay.Event
		require.NoError(t, json.Unmarshal([]byte(frame.data), &ev))
		assert.Equal(t, rt.ID.String(), ev.RentalID)
		assert.Contains(t, string(ev.Data), "Is Friday ok?")

		rec = f.do(t, "PUT", "/api/rentals/"+rt.ID.String()+"/decide", f.owner, map[string]string{"decision": "approved"})
		require.Equal(t, http.StatusOK, rec.Code)

		frame = readFrame(t, reader)
		assert.Equal(t, relay.EventStatusChanged, frame.event)
		assert.Contains(t, frame.data, `"to":"approved"`)
	})
}
