package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoPulseBot/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	mu        sync.Mutex
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

func (m *mockLogger) errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errorMsgs...)
}

// fakeAPI emulates the Bot API endpoints used by Bot.
type fakeAPI struct {
	mu       sync.Mutex
	requests map[string][]string // method -> text params
	updates  []string            // raw update JSON served once
	editErr  string
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

		f.mu.Lock()
		if f.requests == nil {
			f.requests = make(map[string][]string)
		}
		f.requests[method] = append(f.requests[method], r.Form.Get("text"))
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "getMe":
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Pulse","username":"PulseBot"}}`)
		case "sendMessage":
			fmt.Fprintf(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":%s,"type":"private"}}}`, r.Form.Get("chat_id"))
		case "editMessageText":
			f.mu.Lock()
			editErr := f.editErr
			f.mu.Unlock()
			if editErr != "" {
				fmt.Fprintf(w, `{"ok":false,"error_code":400,"description":%q}`, editErr)
				return
			}
			fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%s,"date":0,"chat":{"id":%s,"type":"private"}}}`, r.Form.Get("message_id"), r.Form.Get("chat_id"))
		case "getUpdates":
			f.mu.Lock()
			pending := f.updates
			f.updates = nil
			f.mu.Unlock()
			if len(pending) == 0 {
				time.Sleep(10 * time.Millisecond)
			}
			fmt.Fprintf(w, `{"ok":true,"result":[%s]}`, strings.Join(pending, ","))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}
}

func (f *fakeAPI) setEditErr(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editErr = msg
}

func (f *fakeAPI) texts(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests[method]...)
}

func newTestBot(t *testing.T, api *fakeAPI) (*Bot, *mockLogger) {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	logger := &mockLogger{}
	bot, err := New(Config{
		Token:       "test-token",
		APIEndpoint: server.URL + "/bot%s/%s",
		PollTimeout: time.Second,
		Logger:      logger,
	})
	require.NoError(t, err)
	return bot, logger
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Token: "x"})
	assert.Error(t, err)

	_, err = New(Config{Logger: &mockLogger{}})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestNew_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer server.Close()

	_, err := New(Config{Token: "bad", APIEndpoint: server.URL + "/bot%s/%s", Logger: &mockLogger{}})
	assert.ErrorIs(t, err, ports.ErrAuthenticationFailed)
}

func TestBot_SendAndEdit(t *testing.T) {
	api := &fakeAPI{}
	bot, _ := newTestBot(t, api)
	ctx := context.Background()
	assert.Equal(t, "PulseBot", bot.Username())

	id, err := bot.Send(ctx, 42, "hello")
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	assert.Equal(t, []string{"hello"}, api.texts("sendMessage"))

	require.NoError(t, bot.Edit(ctx, 42, id, "updated"))
	assert.Equal(t, []string{"updated"}, api.texts("editMessageText"))

	api.setEditErr("Bad Request: message is not modified")
	assert.NoError(t, bot.Edit(ctx, 42, id, "updated"))

	api.setEditErr("Bad Request: message to edit not found")
	assert.ErrorIs(t, bot.Edit(ctx, 42, id, "x"), ports.ErrInvalidRequest)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = bot.Send(canceled, 42, "late")
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}

func TestBot_RunDispatchesMessages(t *testing.T) {
	api := &fakeAPI{updates: []string{
		`{"update_id":1,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"/btc1h"}}`,
		`{"update_id":2,"message":{"message_id":2,"date":0,"chat":{"id":43,"type":"private"},"text":"/fail"}}`,
		`{"update_id":3,"message":{"message_id":3,"date":0,"chat":{"id":44,"type":"private"}}}`,
	}}
	bot, logger := newTestBot(t, api)

	var mu sync.Mutex
	got := map[int64]string{}
	handler := func(ctx context.Context, chatID int64, text string) error {
		mu.Lock()
		got[chatID] = text
		mu.Unlock()
		if text == "/fail" {
			return fmt.Errorf("boom")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx, handler) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	assert.Equal(t, "/btc1h", got[42])
	assert.Equal(t, "/fail", got[43])
	assert.Contains(t, logger.errors(), "Failed to handle message")
}

func TestTruncate(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, truncate(short))

	long := strings.Repeat("é", maxMessageLength+10)
	out := truncate(long)
	assert.Equal(t, maxMessageLength, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "…"))
}
