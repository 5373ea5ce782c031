package ports

import "context"

type MessengerPort interface {
	Send(ctx context.Context, chatID int64, text string) error

	// SendWithKeyboard attaches a reply keyboard; each inner slice is
	// one button row.
	SendWithKeyboard(ctx context.Context, chatID int64, text string, rows [][]string) error

	LeaveChat(ctx context.Context, chatID int64) error
}
