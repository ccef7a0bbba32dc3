package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fibo_bot/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func report(types ...models.MessageType) models.CycleReport {
	r := models.CycleReport{
		MarketID: "CS.D.EURUSD.CFD.IP",
		Signal: models.Signal{
			Strategy: "retracement", Direction: models.DirectionBuy, Close: 104, StopLoss: 86, TakeProfit: 140,
		},
	}
	for _, tp := range types {
		r.Messages = append(r.Messages, models.Message{Type: tp, Source: "create_position", Time: at, Text: string(tp) + " text"})
	}
	return r
}

func TestFormat(t *testing.T) {
	t.Parallel()

	got := Format(report(models.MessageInfo, models.MessageSuccess, models.MessageError))
	assert.Contains(t, got, "📊 CS.D.EURUSD.CFD.IP")
	assert.Contains(t, got, "retracement BUY: close=104.00 SL=86.00 TP=140.00")
	assert.Contains(t, got, "✅ 07:08:09 create_position: S text")
	assert.Contains(t, got, "❗️ 07:08:09 create_position: E text")
	assert.NotContains(t, got, "I text")
}

type fakeNotifier struct {
	got []models.CycleReport
	err error
}

func (f *fakeNotifier) Publish(_ context.Context, r models.CycleReport) error {
	f.got = append(f.got, r)
	return f.err
}

func TestMulti(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a, b := &fakeNotifier{err: boom}, &fakeNotifier{}
	err := Multi{a, nil, b, NewLog()}.Publish(context.Background(), report(models.MessageWarning))

	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1, "error in one notifier does not stop the others")
}

func TestTelegram(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/botTOKEN/getMe":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"fibo","username":"fibo_bot"}}`))
		case "/botTOKEN/sendMessage":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "42", r.FormValue("chat_id"))
			mu.Lock()
			texts = append(texts, r.FormValue("text"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	bot, err := tgbot.NewBotAPIWithClient("TOKEN", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	tg := NewTelegramWithBot(bot, 42)

	ctx := context.Background()
	require.NoError(t, tg.Publish(ctx, report(models.MessageInfo)))
	require.NoError(t, tg.Publish(ctx, report(models.MessageInfo, models.MessageSuccess)))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, texts, 1, "info-only reports stay out of the chat")
	assert.Contains(t, texts[0], "S text")
}
