package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"feedback_survey_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedReply = "Error: you are not allowed to run this command."

// RegisterAdminHandlers registers handlers for admin commands.
// It requires the bot instance, admin service, and the configured admin Telegram ID.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, adminTelegramID int64, defaultLookback time.Duration, baseLogger *logrus.Entry) {
	b.Handle("/broadcast_now", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/broadcast_now",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		summary, err := adminService.TriggerBroadcast(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				handlerLogger.WithError(err).Warn("Admin not authorized (service level)")
				return c.Send(unauthorizedReply)
			}
			handlerLogger.WithError(err).Error("Failed to broadcast survey")
			return c.Send(fmt.Sprintf("Survey broadcast failed: %s", err.Error()))
		}

		handlerLogger.WithFields(logrus.Fields{"sent": summary.Sent, "failed": summary.Failed}).Info("Broadcast triggered manually")
		return c.Send(fmt.Sprintf("Survey sent to %d of %d employees (%d failed).", summary.Sent, summary.Employees, summary.Failed))
	}, requireSender)

	b.Handle("/analyze_now", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/analyze_now",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		lookback := defaultLookback
		args := c.Args()
		if len(args) > 1 {
			return c.Send("Invalid command format. Use: /analyze_now [days]")
		}
		if len(args) == 1 {
			days, err := strconv.Atoi(args[0])
			if err != nil || days <= 0 {
				handlerLogger.WithField("arg", args[0]).Warn("Invalid days argument")
				return c.Send("Error: days must be a positive number.")
			}
			lookback = time.Duration(days) * 24 * time.Hour
		}
		handlerLogger = handlerLogger.WithField("lookback", lookback.String())

		report, err := adminService.TriggerAnalysis(ctx, c.Sender().ID, lookback)
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				handlerLogger.WithError(err).Warn("Admin not authorized (service level)")
				return c.Send(unauthorizedReply)
			}
			handlerLogger.WithError(err).Error("Failed to run analysis")
			return c.Send(fmt.Sprintf("Analysis failed: %s", err.Error()))
		}

		handlerLogger.Info("Analysis triggered manually")
		return c.Send(report.Text())
	}, requireSender)

	b.Handle("/list_employees", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/list_employees",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		employees, err := adminService.ListEmployees(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				return c.Send(unauthorizedReply)
			}
			handlerLogger.WithError(err).Error("Failed to get list of employees")
			return c.Send(fmt.Sprintf("Could not load employees: %s", err.Error()))
		}

		if len(employees) == 0 {
			return c.Send("No employees registered yet.")
		}
		handlerLogger.WithField("employees_count", len(employees)).Info("Successfully retrieved employee list")

		var response strings.Builder
		response.WriteString(fmt.Sprintf("--- Employees (%d) ---\n", len(employees)))
		for _, e := range employees {
			response.WriteString(fmt.Sprintf("ID: %d, Telegram ID: %d, Name: %s, Registered: %s\n",
				e.ID, e.TelegramID, e.Name, e.CreatedAt.Format("2006-01-02")))
		}
		return c.Send(response.String())
	}, requireSender)
}
