// Package telegram отправляет события бота в Telegram-чат.
// Командный интерфейс не поддерживается - только уведомления.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kirillm/hft-bot/pkg/utils"
)

// Notifier шлет односторонние уведомления об открытиях, закрытиях
// и ошибках
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *utils.Logger
}

// NewNotifier создает нотификатор. Пустой токен - ошибка: вызывающий
// сам решает, поднимать ли нотификатор вообще.
func NewNotifier(token string, chatID int64, logger *utils.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram notifier authorized as @%s", api.Self.UserName)

	return &Notifier{
		api:    api,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Send отправляет сообщение в чат. Ошибки доставки логируются и не
// прерывают торговый цикл.
func (n *Notifier) Send(text string) {
	message := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(message); err != nil {
		n.logger.Error("Failed to send telegram message: %v", err)
	}
}
