package router

import (
	"sync/atomic"

	"telegram-chat-resolver/internal/ports"
)

// RoundRobinStrategy выбирает клиентов по кругу.
type RoundRobinStrategy struct {
	next atomic.Uint32
}

func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Next возвращает следующего клиента. Пустой список дает ErrNoHealthyClients.
func (s *RoundRobinStrategy) Next(clients []ports.TelegramClient) (ports.TelegramClient, error) {
	if len(clients) == 0 {
		return nil, ErrNoHealthyClients
	}
	idx := s.next.Add(1) - 1
	return clients[idx%uint32(len(clients))], nil
}
