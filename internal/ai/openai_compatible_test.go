package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`

func newTestClient(url string) *OpenAICompatibleClient {
	return NewOpenAICompatibleClient(ChatConfig{
		BaseURL:     url,
		APIKey:      "test-key",
		Model:       "llama3-8b-8192",
		Temperature: 0.7,
		MaxTokens:   500,
		BackoffUnit: time.Millisecond,
	})
}

// scripted answers each call with the next status; 200 returns body.
func scripted(t *testing.T, calls *int32, statuses []int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		status := statuses[len(statuses)-1]
		if int(n) <= len(statuses) {
			status = statuses[n-1]
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(body))
		}
	}
}

func TestComplete_SendsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model       string        `json:"model"`
			Messages    []ChatMessage `json:"messages"`
			Temperature float64       `json:"temperature"`
			MaxTokens   int           `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3-8b-8192", body.Model)
		assert.Equal(t, 500, body.MaxTokens)
		assert.InDelta(t, 0.7, body.Temperature, 1e-9)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)

		_, _ = w.Write([]byte(okBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL + "/v1/")
	out, err := client.Complete(context.Background(), []ChatMessage{
		{Role: "system", Content: "be kind"},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
}

func TestComplete_RetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		body      string
		wantCalls int32
		wantErr   error
		wantCode  int
	}{
		{name: "429 then success", statuses: []int{429, 200}, body: okBody, wantCalls: 2},
		{name: "503 twice then success", statuses: []int{503, 502, 200}, body: okBody, wantCalls: 3},
		{name: "429 exhausted", statuses: []int{429}, wantCalls: 3, wantErr: ErrRateLimited, wantCode: 429},
		{name: "500 exhausted", statuses: []int{500}, wantCalls: 3, wantErr: ErrUnavailable, wantCode: 500},
		{name: "413 not retried", statuses: []int{413, 200}, body: okBody, wantCalls: 1, wantErr: ErrMessageTooLong, wantCode: 413},
		{name: "420 not retried", statuses: []int{420, 200}, body: okBody, wantCalls: 1, wantErr: ErrRequestFormat, wantCode: 420},
		{name: "401 not retried", statuses: []int{401, 200}, body: okBody, wantCalls: 1, wantCode: 401},
		{name: "missing choices not retried", statuses: []int{200}, body: `{"choices":[]}`, wantCalls: 1, wantErr: ErrInvalidResponse},
		{name: "choice without message", statuses: []int{200}, body: `{"choices":[{}]}`, wantCalls: 1, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(scripted(t, &calls, tt.statuses, tt.body))
			defer server.Close()

			out, err := newTestClient(server.URL).Complete(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))

			if tt.wantErr == nil && tt.wantCode == 0 {
				require.NoError(t, err)
				assert.Equal(t, "hello there", out)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantCode != 0 {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.wantCode, se.StatusCode)
			}
		})
	}
}

func TestComplete_TransportErrorIsRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	start := time.Now()
	_, err := newTestClient(url).Complete(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
	// two waits of 1 and 2 backoff units
	assert.GreaterOrEqual(t, time.Since(start), 3*time.Millisecond)
}

func TestBackoff(t *testing.T) {
	c := newTestClient("http://unused")
	c.cfg.BackoffUnit = time.Second

	assert.Equal(t, 2*time.Second, c.backoff(1, &StatusError{StatusCode: 429}))
	assert.Equal(t, 4*time.Second, c.backoff(2, &StatusError{StatusCode: 503}))
	assert.Equal(t, time.Second, c.backoff(1, errors.New("connection reset")))
	assert.Equal(t, 2*time.Second, c.backoff(2, errors.New("connection reset")))
}
