package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAlertPostsToAlertsChat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken123/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(Config{
		BaseURL:      srv.URL,
		BotToken:     "token123",
		AlertsChatID: "-100111",
	}, zerolog.Nop())

	ok := tg.SendAlert(context.Background(), "*AAPL* breakout")
	assert.True(t, ok)
	assert.Equal(t, "-100111", got["chat_id"])
	assert.Equal(t, "*AAPL* breakout", got["text"])
	assert.Equal(t, "Markdown", got["parse_mode"])
}

func TestSendStatusFallsBackToAlertsChat(t *testing.T) {
	var chats []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		chats = append(chats, body["chat_id"].(string))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(Config{
		BaseURL:      srv.URL,
		BotToken:     "t",
		AlertsChatID: "-100111",
	}, zerolog.Nop())
	require.True(t, tg.SendStatus(context.Background(), "heartbeat"))
	assert.Equal(t, []string{"-100111"}, chats)

	tg = NewTelegram(Config{
		BaseURL:      srv.URL,
		BotToken:     "t",
		AlertsChatID: "-100111",
		StatusChatID: "-100222",
	}, zerolog.Nop())
	require.True(t, tg.SendStatus(context.Background(), "heartbeat"))
	assert.Equal(t, "-100222", chats[len(chats)-1])
}

func TestSendNeverPanicsWithoutCredentials(t *testing.T) {
	tg := NewTelegram(Config{}, zerolog.Nop())
	assert.False(t, tg.Enabled())
	assert.False(t, tg.SendAlert(context.Background(), "msg"))
	assert.False(t, tg.SendStatus(context.Background(), "msg"))
}

func TestSendReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegram(Config{BaseURL: srv.URL, BotToken: "t", AlertsChatID: "x"}, zerolog.Nop())
	assert.False(t, tg.SendAlert(context.Background(), "msg"))
}

func TestSendSurvivesDeadEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	tg := NewTelegram(Config{BaseURL: srv.URL, BotToken: "t", AlertsChatID: "x"}, zerolog.Nop())
	assert.False(t, tg.SendAlert(context.Background(), "msg"))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "BRK.A up 2%", EscapeMarkdown("BRK.A up 2%"))
	assert.Equal(t, "A\\_B \\*x\\* \\[y\\] \\`z\\`", EscapeMarkdown("A_B *x* [y] `z`"))
}
