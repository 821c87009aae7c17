package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"telegram-chat-resolver/internal/domain"
)

// mockDirectory — это мок для интерфейса ports.Directory.
type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) LookupChat(ctx context.Context, handle string) (domain.ChatInfo, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).(domain.ChatInfo), args.Error(1)
}

// mockFetcher — это мок для интерфейса ports.PageFetcher.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if res := args.Get(0); res != nil {
		return res.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// funcResolver — резолвер на функции, записывающий все вызовы.
type funcResolver struct {
	mu    sync.Mutex
	calls []domain.Handle
	fn    func(ctx context.Context, h domain.Handle) domain.Outcome
}

func (r *funcResolver) Resolve(ctx context.Context, h domain.Handle) domain.Outcome {
	r.mu.Lock()
	r.calls = append(r.calls, h)
	r.mu.Unlock()
	return r.fn(ctx, h)
}

func (r *funcResolver) Calls() []domain.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Handle, len(r.calls))
	copy(out, r.calls)
	return out
}
