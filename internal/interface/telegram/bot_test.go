package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitbot/habit-bot/internal/application/command"
	"github.com/habitbot/habit-bot/internal/application/query"
	"github.com/habitbot/habit-bot/internal/infrastructure/external/telegram"
	"github.com/habitbot/habit-bot/internal/infrastructure/metrics"
	"github.com/habitbot/habit-bot/internal/infrastructure/persistence"
	"github.com/habitbot/habit-bot/internal/infrastructure/persistence/jsonfile"
	"github.com/habitbot/habit-bot/internal/interface/telegram/handler"
	"github.com/habitbot/habit-bot/internal/interface/telegram/middleware"
	"github.com/habitbot/habit-bot/internal/interface/telegram/presenter"
	"github.com/habitbot/habit-bot/pkg/logger"
	"github.com/habitbot/habit-bot/pkg/timeutil"
)

const ownerID int64 = 1001

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeClient records outgoing messages.
type fakeClient struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (c *fakeClient) SendText(_ context.Context, chatID int64, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (c *fakeClient) SetCommands(context.Context, ...telegram.BotCommand) error { return nil }

func (c *fakeClient) StartPolling(ctx context.Context, _ telegram.UpdateHandler) error {
	<-ctx.Done()
	return nil
}

func (c *fakeClient) messages() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMessage(nil), c.sent...)
}

type testBot struct {
	bot     *Bot
	client  *fakeClient
	store   *persistence.SerializedStore
	clock   *clockwork.FakeClock
	metrics *metrics.Metrics
}

func newTestBot(t *testing.T, dataFile string) *testBot {
	t.Helper()
	return newTestBotWithLogger(t, dataFile, logger.Discard())
}

func newTestBotWithLogger(t *testing.T, dataFile string, log *slog.Logger) *testBot {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 21, 0, 0, 0, time.UTC))
	cal := timeutil.NewCalendar(clock, time.UTC)
	m := metrics.New()
	store := persistence.NewSerializedStore(jsonfile.NewStore(dataFile), log, m)
	client := &fakeClient{}

	bot, err := NewBot(
		BotConfig{AuthorizedUserID: ownerID, Logger: log, Metrics: m},
		BotDependencies{
			Client:         client,
			StartHandler:   handler.NewStartHandler(command.NewBeginTrackingHandler(store, cal, log)),
			StatsHandler:   handler.NewStatsHandler(query.NewGetStatsHandler(store, cal, "")),
			CheckInHandler: handler.NewCheckInHandler(command.NewRecordCheckInHandler(store, cal, m, log)),
		},
	)
	require.NoError(t, err)

	return &testBot{bot: bot, client: client, store: store, clock: clock, metrics: m}
}

func textUpdate(from int64, text string) *telegram.Update {
	return &telegram.Update{ID: 1, Message: &telegram.Message{ID: 1, ChatID: from, FromID: from, Text: text}}
}

func commandUpdate(from int64, cmd string) *telegram.Update {
	u := textUpdate(from, "/"+cmd)
	u.Message.Command = cmd
	return u
}

func TestBot_UnauthorizedStartIsIgnored(t *testing.T) {
	ctx := context.Background()
	tb := newTestBot(t, filepath.Join(t.TempDir(), "data.json"))

	require.NoError(t, tb.bot.HandleUpdate(ctx, commandUpdate(2002, CommandStart)))
	require.NoError(t, tb.bot.HandleUpdate(ctx, textUpdate(2002, "нет")))

	assert.Empty(t, tb.client.messages())
	rec := tb.store.Load(ctx)
	assert.False(t, rec.HasStarted())
	assert.Empty(t, rec.Days)
	assert.Equal(t, 2.0, testutil.ToFloat64(tb.metrics.UpdatesTotal.WithLabelValues(KindUnauthorized)))
}

func TestBot_StartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tb := newTestBot(t, filepath.Join(t.TempDir(), "data.json"))

	require.NoError(t, tb.bot.HandleUpdate(ctx, commandUpdate(ownerID, CommandStart)))
	tb.clock.Advance(24 * time.Hour)
	require.NoError(t, tb.bot.HandleUpdate(ctx, commandUpdate(ownerID, CommandStart)))

	assert.Equal(t, []sentMessage{
		{ChatID: ownerID, Text: presenter.TrackingStarted},
		{ChatID: ownerID, Text: presenter.TrackingAlreadyStarted},
	}, tb.client.messages())

	rec := tb.store.Load(ctx)
	require.True(t, rec.HasStarted())
	assert.Equal(t, "2026-10-19", *rec.StartDate)
}

func TestBot_CheckInsAndStats(t *testing.T) {
	ctx := context.Background()
	tb := newTestBot(t, filepath.Join(t.TempDir(), "data.json"))

	require.NoError(t, tb.bot.HandleUpdate(ctx, textUpdate(ownerID, "нет")))
	require.NoError(t, tb.bot.HandleUpdate(ctx, textUpdate(ownerID, "Срыв: да")))
	require.NoError(t, tb.bot.HandleUpdate(ctx, commandUpdate(ownerID, CommandStats)))

	msgs := tb.client.messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, presenter.CheckInSaved, msgs[0].Text)
	assert.Equal(t, presenter.CheckInSaved, msgs[1].Text)
	assert.Equal(t, "📊 Всего дней: 2\n✅ Без срывов: 1\n📆 За неделю: 2\n📅 За месяц: 2", msgs[2].Text)

	rec := tb.store.Load(ctx)
	require.Len(t, rec.Days, 2)
	assert.Equal(t, "Срыв: да", rec.Days[1].Response)
	assert.Equal(t, "2026-10-19", rec.Days[1].Date)
	assert.Equal(t, 2.0, testutil.ToFloat64(tb.metrics.CheckInsTotal))
}

func TestBot_UnknownCommandIsIgnored(t *testing.T) {
	ctx := context.Background()
	tb := newTestBot(t, filepath.Join(t.TempDir(), "data.json"))

	require.NoError(t, tb.bot.HandleUpdate(ctx, commandUpdate(ownerID, "help")))

	assert.Empty(t, tb.client.messages())
	assert.Empty(t, tb.store.Load(ctx).Days)
	assert.Equal(t, 1.0, testutil.ToFloat64(tb.metrics.UpdatesTotal.WithLabelValues(KindIgnored)))
}

func TestBot_SaveFailureSendsNoReply(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	tb := newTestBot(t, filepath.Join(blocker, "data.json"))

	err := tb.bot.HandleUpdate(context.Background(), textUpdate(ownerID, "нет"))

	assert.Error(t, err)
	assert.Empty(t, tb.client.messages())
}

type panicHandler struct{}

func (panicHandler) Handle(context.Context, handler.Request) (*handler.Response, error) {
	panic("boom")
}

func TestBot_RecoversFromPanics(t *testing.T) {
	tb := newTestBot(t, filepath.Join(t.TempDir(), "data.json"))
	tb.bot.Router().RegisterCommand("crash", panicHandler{})

	var err error
	assert.NotPanics(t, func() {
		err = tb.bot.HandleUpdate(context.Background(), commandUpdate(ownerID, "crash"))
	})
	assert.ErrorIs(t, err, middleware.ErrPanic)
	assert.Empty(t, tb.client.messages())
}

func TestBot_PanicReportCarriesRequestScope(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Env: "production"})
	tb := newTestBotWithLogger(t, filepath.Join(t.TempDir(), "data.json"), log)
	tb.bot.Router().RegisterCommand("crash", panicHandler{})

	_ = tb.bot.HandleUpdate(context.Background(), commandUpdate(ownerID, "crash"))

	var report map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "recovered from panic" {
			report = entry
		}
	}
	require.NotNil(t, report, "panic must be logged")
	assert.Equal(t, "telegram", report["component"])
	assert.EqualValues(t, ownerID, report["telegram_id"])
	assert.NotEmpty(t, report["request_id"])
	assert.Equal(t, "boom", report["panic"])
}

func TestBot_StartStopsWithContext(t *testing.T) {
	tb := newTestBot(t, filepath.Join(t.TempDir(), "data.json"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- tb.bot.Start(ctx) }()

	assert.Eventually(t, tb.bot.IsRunning, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	assert.False(t, tb.bot.IsRunning())
}

func TestNewBot_Validation(t *testing.T) {
	_, err := NewBot(BotConfig{AuthorizedUserID: ownerID}, BotDependencies{})
	assert.Error(t, err)
}
