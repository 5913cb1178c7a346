package sentiment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cryptoPulseBot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func TestClient_Current(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantValue int
		wantClass string
		wantErr   bool
	}{
		{
			name:      "valid reading",
			status:    http.StatusOK,
			body:      `{"name":"Fear and Greed Index","data":[{"value":"40","value_classification":"Fear","timestamp":"1700000000","time_until_update":"100"}]}`,
			wantValue: 40,
			wantClass: "Fear",
		},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, wantErr: true},
		{name: "empty data", status: http.StatusOK, body: `{"data":[]}`, wantErr: true},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: true},
		{name: "non numeric value", status: http.StatusOK, body: `{"data":[{"value":"high"}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c, err := New(Config{URL: srv.URL, Logger: &mockLogger{}})
			require.NoError(t, err)

			got, err := c.Current(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ports.ErrSentimentUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantClass, got.Classification)
			assert.Equal(t, time.Unix(1700000000, 0).UTC(), got.Timestamp)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{URL: url, Logger: &mockLogger{}, Timeout: time.Second})
	require.NoError(t, err)
	_, err = c.Current(context.Background())
	assert.ErrorIs(t, err, ports.ErrSentimentUnavailable)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{Logger: &mockLogger{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.url)

	_, err = New(Config{})
	assert.Error(t, err)
}
