package bot

import (
	"context"
	"log"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Bot wraps the Telegram bot that hands players the Mini App entry point
type Bot struct {
	b         *bot.Bot
	webAppURL string
}

// New creates the bot and registers the /start handler
func New(token, webAppURL string) (*Bot, error) {
	tb := &Bot{webAppURL: webAppURL}

	b, err := bot.New(token)
	if err != nil {
		return nil, err
	}

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, tb.handleStart)

	tb.b = b
	return tb, nil
}

// Start points the chat menu button at the Mini App and begins long polling
// until the context is cancelled
func (t *Bot) Start(ctx context.Context) {
	if _, err := t.b.SetChatMenuButton(ctx, &bot.SetChatMenuButtonParams{
		MenuButton: t.menuButton(),
	}); err != nil {
		log.Printf("failed to set chat menu button: %v", err)
	}

	log.Println("Telegram bot started")
	t.b.Start(ctx)
}

// menuButton builds the web_app menu button shown next to the message field
func (t *Bot) menuButton() models.MenuButtonWebApp {
	return models.MenuButtonWebApp{
		Type:   "web_app",
		Text:   "Play",
		WebApp: models.WebAppInfo{URL: t.webAppURL},
	}
}

func (t *Bot) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "Cadmium!",
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{
					{
						Text:   "▶️ Play",
						WebApp: &models.WebAppInfo{URL: t.webAppURL},
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("failed to send start reply: %v", err)
	}
}
