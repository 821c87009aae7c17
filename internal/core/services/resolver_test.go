package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"telegram-chat-resolver/internal/domain"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestDirectoryResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("канал резолвится успешно", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("LookupChat", mock.Anything, "@news_channel").
			Return(domain.ChatInfo{Title: "News", Kind: domain.KindChannel}, nil).Once()
		r := NewDirectoryResolver(dir, WithResolverLogger(discardLogger))

		got := r.Resolve(ctx, domain.Handle{Username: "news_channel"})

		assert.Equal(t, domain.OutcomeSuccess, got.Status)
		assert.Equal(t, domain.ResolvedChat{Handle: domain.Handle{Username: "news_channel"}, Title: "News", Kind: domain.KindChannel}, got.Chat)
		dir.AssertExpectations(t)
	})

	t.Run("путь отрезается перед запросом", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("LookupChat", mock.Anything, "@news_channel").
			Return(domain.ChatInfo{Title: "News", Kind: domain.KindSupergroup}, nil).Once()
		r := NewDirectoryResolver(dir, WithResolverLogger(discardLogger))

		h := domain.Handle{Username: "news_channel", Path: "42"}
		got := r.Resolve(ctx, h)

		assert.Equal(t, domain.OutcomeSuccess, got.Status)
		assert.Equal(t, h, got.Chat.Handle)
		dir.AssertExpectations(t)
	})

	t.Run("не канал и не группа", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("LookupChat", mock.Anything, "@some_person").
			Return(domain.ChatInfo{Title: "Some Person", Kind: domain.KindOther}, nil)

		got := NewDirectoryResolver(dir, WithResolverLogger(discardLogger)).Resolve(ctx, domain.Handle{Username: "some_person"})
		assert.Equal(t, domain.Failure(domain.Handle{Username: "some_person"}, "@some_person is not a channel or group"), got)

		private := NewDirectoryResolver(dir, WithResolverLogger(discardLogger), WithPrivacyFirstMessages(true))
		got = private.Resolve(ctx, domain.Handle{Username: "some_person"})
		assert.Equal(t, "@some_person is private", got.Message)
	})

	t.Run("ошибка справочника передается как есть", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("LookupChat", mock.Anything, "@missing_chat").
			Return(domain.ChatInfo{}, errors.New("Bad Request: chat not found")).Once()

		got := NewDirectoryResolver(dir, WithResolverLogger(discardLogger)).Resolve(ctx, domain.Handle{Username: "missing_chat"})

		assert.Equal(t, domain.OutcomeFailure, got.Status)
		assert.Equal(t, "Bad Request: chat not found", got.Message)
		dir.AssertNumberOfCalls(t, "LookupChat", 1)
	})
}

const channelPage = `<html><head>
<meta property="og:title" content="News &amp; Views">
<meta property="og:description" content="Daily news">
</head><body>
<div class="tgme_page_title"><span dir="auto">News &amp; Views</span></div>
<div class="tgme_page_extra">
  12 345 subscribers
</div>
</body></html>`

const groupPage = `<meta property="og:title" content="Go Chat">
<div class="tgme_page_extra">1 024 members, 80 online</div>`

const userPage = `<meta property="og:title" content="Jane">
<div class="tgme_page_extra">@jane_doe</div>`

func TestParsePage(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		want   domain.ChatInfo
		wantOK bool
	}{
		{"канал", channelPage, domain.ChatInfo{Title: "News & Views", Kind: domain.KindChannel}, true},
		{"группа", groupPage, domain.ChatInfo{Title: "Go Chat", Kind: domain.KindSupergroup}, true},
		{"пользователь", userPage, domain.ChatInfo{Title: "Jane", Kind: domain.KindOther}, true},
		{"нет заголовка", `<html><title>Telegram</title></html>`, domain.ChatInfo{}, false},
		{"пустой заголовок", `<meta property="og:title" content="">`, domain.ChatInfo{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePage([]byte(tt.page))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("успех по голой ссылке", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("FetchPage", mock.Anything, "https://t.me/news_channel").Return([]byte(channelPage), nil).Once()
		r := NewPageResolver(fetcher, WithResolverLogger(discardLogger))

		h := domain.Handle{Username: "news_channel", Path: "5"}
		got := r.Resolve(ctx, h)

		assert.Equal(t, domain.Success(domain.ResolvedChat{Handle: h, Title: "News & Views", Kind: domain.KindChannel}), got)
		fetcher.AssertExpectations(t)
	})

	t.Run("нет заголовка", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("FetchPage", mock.Anything, "https://t.me/empty_page").Return([]byte("<html></html>"), nil).Once()

		got := NewPageResolver(fetcher, WithResolverLogger(discardLogger)).Resolve(ctx, domain.Handle{Username: "empty_page"})

		assert.Equal(t, "https://t.me/empty_page has no title", got.Message)
	})

	t.Run("страница пользователя", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("FetchPage", mock.Anything, "https://t.me/jane_doe").Return([]byte(userPage), nil).Once()

		got := NewPageResolver(fetcher, WithResolverLogger(discardLogger)).Resolve(ctx, domain.Handle{Username: "jane_doe"})

		assert.Equal(t, "@jane_doe is not a channel or group", got.Message)
	})

	t.Run("ошибка загрузки", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("FetchPage", mock.Anything, "https://t.me/news_channel").Return(nil, errors.New("unexpected HTTP status: 502")).Once()

		got := NewPageResolver(fetcher, WithResolverLogger(discardLogger)).Resolve(ctx, domain.Handle{Username: "news_channel"})

		assert.Equal(t, domain.OutcomeFailure, got.Status)
		assert.Equal(t, "unexpected HTTP status: 502", got.Message)
	})
}
