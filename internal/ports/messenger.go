package ports

import "context"

// Messenger delivers text messages to chats.
type Messenger interface {
	// Send posts a new message and returns its message ID.
	Send(ctx context.Context, chatID int64, text string) (int, error)
	// Edit replaces the text of a previously sent message.
	Edit(ctx context.Context, chatID int64, messageID int, text string) error
}
