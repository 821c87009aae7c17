package services

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/observability"
	"telegram-chat-resolver/internal/ports"
)

var (
	// ogTitleRegexp — единственный контракт со страницей: заголовок есть или его нет.
	ogTitleRegexp = regexp.MustCompile(`property="og:title"\s+content="([^"]*)"`)
	// pageExtraRegexp выделяет счетчик подписчиков/участников под заголовком.
	pageExtraRegexp = regexp.MustCompile(`class="tgme_page_extra"[^>]*>\s*([^<]*)`)
)

// PageResolver разрешает хендлы по публичной странице t.me без авторизации.
type PageResolver struct {
	fetcher ports.PageFetcher
	cfg     resolverConfig
}

// NewPageResolver создает резолвер поверх загрузчика страниц.
func NewPageResolver(fetcher ports.PageFetcher, opts ...ResolverOption) *PageResolver {
	return &PageResolver{
		fetcher: fetcher,
		cfg:     newResolverConfig("web", opts),
	}
}

// Resolve загружает страницу https://t.me/<username> и вынимает og:title.
func (r *PageResolver) Resolve(ctx context.Context, h domain.Handle) domain.Outcome {
	link := h.Bare().Link()

	start := time.Now()
	page, err := r.fetcher.FetchPage(ctx, link)
	observability.DirectoryLookupDuration.WithLabelValues(r.cfg.backend).Observe(time.Since(start).Seconds())

	if err != nil {
		r.cfg.log.DebugContext(ctx, "Page fetch failed", "link", link, "error", err)
		return domain.Failure(h, err.Error())
	}

	info, ok := ParsePage(page)
	if !ok {
		return domain.Failure(h, fmt.Sprintf("%s has no title", h.Link()))
	}
	if !info.Kind.Resolvable() {
		r.cfg.log.DebugContext(ctx, "Page does not describe a chat", "link", link, "kind", info.Kind)
		return domain.Failure(h, r.cfg.notResolvableMessage(h))
	}

	return domain.Success(domain.ResolvedChat{Handle: h, Title: info.Title, Kind: info.Kind})
}

// ParsePage извлекает заголовок и тип сущности из HTML страницы t.me.
// Возвращает false, если og:title отсутствует.
func ParsePage(page []byte) (domain.ChatInfo, bool) {
	m := ogTitleRegexp.FindSubmatch(page)
	if m == nil {
		return domain.ChatInfo{}, false
	}
	title := strings.TrimSpace(html.UnescapeString(string(m[1])))
	if title == "" {
		return domain.ChatInfo{}, false
	}

	info := domain.ChatInfo{Title: title, Kind: domain.KindOther}
	if extra := pageExtraRegexp.FindSubmatch(page); extra != nil {
		counter := strings.ToLower(string(extra[1]))
		switch {
		case strings.Contains(counter, "subscriber"):
			info.Kind = domain.KindChannel
		case strings.Contains(counter, "member"):
			info.Kind = domain.KindSupergroup
		}
	}
	return info, true
}
