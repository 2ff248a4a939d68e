package telegram

import "gopkg.in/telebot.v3"

// requireSender drops updates that carry no sender, such as channel posts.
// Every handler in this package reads c.Sender().ID.
func requireSender(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}
		return next(c)
	}
}
