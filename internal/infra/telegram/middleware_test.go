package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/telebot.v3"
)

// stubContext implements only what the middleware touches.
type stubContext struct {
	telebot.Context
	sender *telebot.User
}

func (c *stubContext) Sender() *telebot.User { return c.sender }

func TestRequireSender(t *testing.T) {
	var calls int
	handler := requireSender(func(c telebot.Context) error {
		calls++
		_ = c.Sender().ID
		return nil
	})

	assert.NotPanics(t, func() {
		assert.NoError(t, handler(&stubContext{}))
	})
	assert.Equal(t, 0, calls)

	assert.NoError(t, handler(&stubContext{sender: &telebot.User{ID: 5}}))
	assert.Equal(t, 1, calls)
}
