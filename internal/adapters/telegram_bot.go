package adapters

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"funcfleet/internal/ports"
)

// TelegramBotAdapter sends bot messages over the Telegram Bot API.
type TelegramBotAdapter struct {
	Bot *tgbotapi.BotAPI
}

func NewTelegramBotAdapter(token string) (*TelegramBotAdapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to authorize bot").
			WithCause(err)
	}
	return &TelegramBotAdapter{Bot: bot}, nil
}

func (a *TelegramBotAdapter) Send(ctx context.Context, chatID int64, text string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := a.Bot.Send(msg); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to send message").
			WithCause(err)
	}
	return nil
}

func (a *TelegramBotAdapter) SendWithKeyboard(ctx context.Context, chatID int64, text string, rows [][]string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	msg := tgbotapi.NewMessage(chatID, text)
	keyboardRows := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		keyboardRows = append(keyboardRows, buttons)
	}
	keyboard := tgbotapi.NewReplyKeyboard(keyboardRows...)
	keyboard.ResizeKeyboard = true
	msg.ReplyMarkup = keyboard
	if _, err := a.Bot.Send(msg); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to send keyboard message").
			WithCause(err)
	}
	return nil
}

func (a *TelegramBotAdapter) LeaveChat(ctx context.Context, chatID int64) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, err := a.Bot.Request(tgbotapi.LeaveChatConfig{ChatID: chatID}); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to leave chat").
			WithCause(err)
	}
	return nil
}

var _ ports.MessengerPort = (*TelegramBotAdapter)(nil)
