// internal/infra/telegram/survey_handlers.go
package telegram

import (
	"context"
	"strings"
	"time"

	"feedback_survey_bot/internal/app"
	"feedback_survey_bot/internal/infra/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// answerTimeout bounds one answer, including classification and its retries.
const answerTimeout = 3 * time.Minute

func displayName(u *telebot.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// RegisterSurveyHandlers wires /start, /register, /help and free-text answers.
// Updates of one chat are handled strictly in arrival order.
func RegisterSurveyHandlers(
	ctx context.Context,
	b *telebot.Bot,
	conversation *app.ConversationService,
	notices config.NoticesConfig,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	locks := newChatLocks()
	surveyLogger := baseLogger.WithField("handler_group", "survey")

	withChat := func(command string, fn func(ctx context.Context, c telebot.Context, log *logrus.Entry) error) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			sender := c.Sender()
			log := surveyLogger.WithFields(logrus.Fields{
				"command":    command,
				"sender_id":  sender.ID,
				"request_id": uuid.NewString(),
			})

			unlock := locks.Lock(sender.ID)
			defer unlock()

			reqCtx, cancel := context.WithTimeout(ctx, answerTimeout)
			defer cancel()
			return fn(reqCtx, c, log)
		}
	}

	register := func(ctx context.Context, c telebot.Context, log *logrus.Entry) error {
		log.Info("Processing registration")
		if err := conversation.Register(ctx, c.Sender().ID, displayName(c.Sender())); err != nil {
			log.WithError(err).Error("Registration failed")
			return c.Send(notices.ProcessingFailed)
		}
		return nil
	}

	b.Handle("/start", withChat("/start", func(ctx context.Context, c telebot.Context, log *logrus.Entry) error {
		if err := c.Send(notices.Greeting); err != nil {
			log.WithError(err).Warn("Failed to send greeting")
		}
		return register(ctx, c, log)
	}), requireSender)

	b.Handle("/register", withChat("/register", register), requireSender)

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		surveyLogger.WithFields(logrus.Fields{"command": "/help", "sender_id": senderID}).Info("Processing /help command")

		if senderID == adminTelegramID {
			var helpText strings.Builder
			helpText.WriteString(notices.Help)
			helpText.WriteString("\n\nAdmin commands:\n")
			helpText.WriteString("/broadcast_now - send the first survey question to every employee now\n")
			helpText.WriteString("/analyze_now [days] - build the feedback report for the last days (default from config)\n")
			helpText.WriteString("/list_employees - show registered employees")
			return c.Send(helpText.String())
		}
		return c.Send(notices.Help)
	}, requireSender)

	b.Handle(telebot.OnText, withChat("text", func(ctx context.Context, c telebot.Context, log *logrus.Entry) error {
		text := c.Text()
		if strings.HasPrefix(text, "/") {
			log.WithField("text", text).Info("Unknown command")
			return c.Send(notices.Help)
		}
		if strings.TrimSpace(text) == "" {
			return nil
		}

		if err := conversation.HandleText(ctx, c.Sender().ID, text); err != nil {
			log.WithError(err).Error("Failed to handle answer")
			return c.Send(notices.ProcessingFailed)
		}
		return nil
	}), requireSender)
}
