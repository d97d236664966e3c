package bot

import (
	"sync"
	"testing"

	"kudos-bot/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

func TestMessageEvent(t *testing.T) {
	tests := []struct {
		text string
		want flow.Event
	}{
		{"/start", flow.Event{Identity: "tg:1", Kind: flow.KindCommand, Command: "start"}},
		{"/start ref42", flow.Event{Identity: "tg:1", Kind: flow.KindCommand, Command: "start"}},
		{"/plus@kudos_bot", flow.Event{Identity: "tg:1", Kind: flow.KindCommand, Command: "plus"}},
		{"спасибо за помощь", flow.Event{Identity: "tg:1", Kind: flow.KindText, Text: "спасибо за помощь"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, messageEvent("tg:1", tt.text))
		})
	}
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "tg:123456", identity(&telebot.User{ID: 123456}))
}

func TestMarkup(t *testing.T) {
	assert.Nil(t, markup(nil))

	rm := markup([][]flow.Button{
		{{Label: "Alice", Payload: "select_self:user:1"}},
		{{Label: "⬅️", Payload: "select_self:page:0"}, {Label: "➡️", Payload: "select_self:page:2"}},
	})
	require.NotNil(t, rm)
	require.Len(t, rm.InlineKeyboard, 2)
	assert.Equal(t, "Alice", rm.InlineKeyboard[0][0].Text)
	assert.Equal(t, "select_self:user:1", rm.InlineKeyboard[0][0].Data)
	assert.Empty(t, rm.InlineKeyboard[0][0].Unique)
	assert.Len(t, rm.InlineKeyboard[1], 2)
	assert.Equal(t, "select_self:page:2", rm.InlineKeyboard[1][1].Data)
}

func TestCommands_Valid(t *testing.T) {
	for _, c := range Commands {
		assert.Regexp(t, `^[a-z_]{1,32}$`, c.Text)
		assert.GreaterOrEqual(t, len([]rune(c.Description)), 3)
	}
}

func TestNewBot_RecoversFromPanics(t *testing.T) {
	var (
		mu     sync.Mutex
		caught []error
	)
	b, err := newBot(telebot.Settings{
		Offline:     true,
		Synchronous: true,
		OnError: func(err error, _ telebot.Context) {
			mu.Lock()
			defer mu.Unlock()
			caught = append(caught, err)
		},
	}, nil)
	require.NoError(t, err)

	b.B.Handle("/boom", func(telebot.Context) error { panic("boom") })

	require.NotPanics(t, func() {
		b.B.ProcessUpdate(telebot.Update{Message: &telebot.Message{
			Text:   "/boom",
			Sender: &telebot.User{ID: 1},
			Chat:   &telebot.Chat{ID: 1},
		}})
	})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, caught, 1)
	assert.EqualError(t, caught[0], "boom")
}
