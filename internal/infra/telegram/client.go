// internal/infra/telegram/client.go
package telegram

import (
	domainTelegram "feedback_survey_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

var _ domainTelegram.Client = (*TelebotAdapter)(nil)

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a plain text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string) error {
	recipient := &telebot.User{ID: recipientChatID} // Employees talk to the bot in private chats
	_, err := tba.bot.Send(recipient, text, &telebot.SendOptions{DisableWebPagePreview: true})
	return err
}
