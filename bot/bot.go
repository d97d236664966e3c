package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kudos-bot/errs"
	"kudos-bot/flow"

	"github.com/google/logger"
	"gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

// Commands shown in the Telegram menu. The machine knows a few aliases on top.
var Commands = []telebot.Command{
	{Text: "start", Description: "Войти или вернуться в меню"},
	{Text: "plus", Description: "Поставить плюсик коллеге"},
	{Text: "status", Description: "Мои плюсики и баланс"},
	{Text: "shop", Description: "Магазин"},
	{Text: "given", Description: "Кому я ставил плюсики"},
	{Text: "feed", Description: "Последние плюсики"},
	{Text: "cancel", Description: "Отменить текущее действие"},
	{Text: "logout", Description: "Выйти"},
	{Text: "admin", Description: "Админ-меню"},
}

const failureText = "⚠️ Что-то пошло не так, попробуй ещё раз чуть позже."

type Bot struct {
	B       *telebot.Bot
	Machine *flow.Machine
}

func NewBot(token string, pollTimeout time.Duration, m *flow.Machine) (*Bot, error) {
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: pollTimeout},
		OnError: func(err error, c telebot.Context) {
			if c != nil && c.Sender() != nil {
				logger.Errorf("telegram update for %s: %v", identity(c.Sender()), err)
				return
			}
			logger.Errorf("telegram: %v", err)
		},
	}

	return newBot(pref, m)
}

// newBot installs panic recovery before any handler so a single bad update
// cannot take the poller down.
func newBot(pref telebot.Settings, m *flow.Machine) (*Bot, error) {
	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, errs.Wrap(err, "connect to telegram")
	}

	b.Use(middleware.Recover())

	bot := &Bot{B: b, Machine: m}
	bot.registerHandlers()
	return bot, nil
}

// Start publishes the command list and blocks polling updates until Stop.
func (bot *Bot) Start() {
	if err := bot.B.SetCommands(Commands); err != nil {
		logger.Warningf("set bot commands: %v", err)
	}
	logger.Infof("bot @%s started", bot.B.Me.Username)
	bot.B.Start()
}

func (bot *Bot) Stop() {
	bot.B.Stop()
}

func (bot *Bot) registerHandlers() {
	for _, cmd := range Commands {
		bot.B.Handle("/"+cmd.Text, bot.handleMessage)
	}
	bot.B.Handle("/give", bot.handleMessage)

	bot.B.Handle(telebot.OnText, bot.handleMessage)
	bot.B.Handle(telebot.OnCallback, bot.handleCallback)
}

func identity(u *telebot.User) string {
	return fmt.Sprintf("tg:%d", u.ID)
}

// messageEvent turns a chat message into a command or free-text event.
func messageEvent(id, text string) flow.Event {
	if !strings.HasPrefix(text, "/") {
		return flow.TextEvent(id, text)
	}
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return flow.CommandEvent(id, name)
}

func (bot *Bot) handleMessage(c telebot.Context) error {
	if c.Sender() == nil {
		return nil
	}
	ev := messageEvent(identity(c.Sender()), c.Text())
	resp, err := bot.Machine.Handle(context.Background(), ev)
	if err != nil {
		return c.Send(failureText)
	}
	return bot.deliver(c, resp)
}

func (bot *Bot) handleCallback(c telebot.Context) error {
	cb := c.Callback()
	if cb == nil || c.Sender() == nil {
		return nil
	}

	choice, err := flow.ParseChoice(strings.TrimSpace(cb.Data))
	if err != nil {
		logger.Infof("callback from %s: %v", identity(c.Sender()), err)
		return c.Respond(&telebot.CallbackResponse{Text: "Эта кнопка больше не работает. Используй /start"})
	}

	resp, err := bot.Machine.Handle(context.Background(), flow.ChoiceEvent(identity(c.Sender()), choice))
	if err != nil {
		if err := c.Respond(); err != nil {
			logger.Warningf("answer callback: %v", err)
		}
		return c.Send(failureText)
	}
	if err := c.Respond(); err != nil {
		logger.Warningf("answer callback: %v", err)
	}
	return bot.deliver(c, resp)
}

func (bot *Bot) deliver(c telebot.Context, resp *flow.Response) error {
	if resp == nil {
		return nil
	}

	var opts []interface{}
	if rm := markup(resp.Choices); rm != nil {
		opts = append(opts, rm)
	}

	if resp.Edit && c.Callback() != nil {
		err := c.Edit(resp.Text, opts...)
		if errs.Is(err, telebot.ErrMessageNotModified) {
			return nil
		}
		return err
	}
	return c.Send(resp.Text, opts...)
}

// markup renders button rows as an inline keyboard. Payloads go out verbatim.
func markup(rows [][]flow.Button) *telebot.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	rm := &telebot.ReplyMarkup{}
	inline := make([]telebot.Row, 0, len(rows))
	for _, row := range rows {
		r := make(telebot.Row, 0, len(row))
		for _, b := range row {
			r = append(r, telebot.Btn{Text: b.Label, Data: b.Payload})
		}
		inline = append(inline, r)
	}
	rm.Inline(inline...)
	return rm
}
