// Package botapi связывает конвейер с Telegram Bot API.
package botapi

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API — подмножество *tgbotapi.BotAPI, которым пользуются адаптеры.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

var _ API = (*tgbotapi.BotAPI)(nil)
