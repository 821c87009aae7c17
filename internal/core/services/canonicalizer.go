package services

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"telegram-chat-resolver/internal/domain"
)

// Policy задает правила отбрасывания ссылок до резолва.
// Один и тот же Policy должен использоваться во всем конвейере.
type Policy struct {
	// RejectBotsEarly — username, оканчивающийся на "bot", отбрасывается без запроса к справочнику.
	RejectBotsEarly bool
	// ReportHiddenForwards — пересылка из канала без username порождает SkipReason, иначе молча игнорируется.
	ReportHiddenForwards bool
}

// DefaultPolicy — строгий вариант: боты и скрытые источники пересылки попадают в отчет.
func DefaultPolicy() Policy {
	return Policy{RejectBotsEarly: true, ReportHiddenForwards: true}
}

// usernameRegexp — допустимый публичный username Telegram.
var usernameRegexp = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,31}$`)

const joinChatSegment = "joinchat"

// isShortLinkHost сообщает, ведет ли хост на t.me.
func isShortLinkHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return host == "t.me" || host == "telegram.me"
}

// Canonicalize нормализует сырую ссылку в Handle или SkipReason.
// Ссылки не на Telegram игнорируются без ошибки.
func Canonicalize(ref domain.RawReference, policy Policy) domain.Candidate {
	switch ref.Kind {
	case domain.RefMention:
		text := strings.TrimSpace(ref.Text)
		return fromUsername(text, strings.TrimPrefix(text, "@"), "", policy)
	case domain.RefURL:
		return fromLink(ref.Text, policy)
	case domain.RefTextLink:
		return fromLink(ref.URL, policy)
	case domain.RefForwardOrigin:
		if ref.Text == "" {
			if policy.ReportHiddenForwards {
				return skipped(ref.Title, domain.SkipHiddenOrigin, "")
			}
			return domain.Candidate{Kind: domain.CandidateIgnored}
		}
		username := strings.TrimPrefix(ref.Text, "@")
		return fromUsername("@"+username, username, "", policy)
	default:
		return domain.Candidate{Kind: domain.CandidateIgnored}
	}
}

func fromLink(raw string, policy Policy) domain.Candidate {
	link := strings.TrimSpace(raw)
	if link == "" {
		return domain.Candidate{Kind: domain.CandidateIgnored}
	}
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}

	u, err := url.Parse(link)
	if err != nil {
		detail := err.Error()
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			detail = urlErr.Err.Error()
		}
		return skipped(raw, domain.SkipMalformed, detail)
	}
	if !isShortLinkHost(u.Hostname()) {
		return domain.Candidate{Kind: domain.CandidateIgnored}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return skipped(raw, domain.SkipMalformed, fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}

	// Путь берется в экранированном виде: %3F и %23 в хвосте не должны
	// превращаться в запрос или фрагмент при повторном разборе Link.
	segments := pathSegments(u.EscapedPath())
	if len(segments) == 0 {
		return skipped(raw, domain.SkipMalformed, "no username in link")
	}

	name, rest := segments[0], segments[1:]
	switch {
	case strings.EqualFold(name, joinChatSegment):
		return skipped(raw, domain.SkipPrivate, "")
	case name == "s" && len(rest) > 0:
		// Превью канала: t.me/s/<username>.
		name, rest = rest[0], rest[1:]
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	return fromUsername(raw, name, strings.Join(rest, "/"), policy)
}

func fromUsername(ref, username, path string, policy Policy) domain.Candidate {
	if strings.HasPrefix(username, "+") {
		return skipped(ref, domain.SkipPrivate, "")
	}
	if policy.RejectBotsEarly && strings.HasSuffix(strings.ToLower(username), "bot") {
		return skipped(ref, domain.SkipBot, "")
	}
	if !usernameRegexp.MatchString(username) {
		return skipped(ref, domain.SkipMalformed, "")
	}
	return domain.Candidate{
		Kind:   domain.CandidateHandle,
		Handle: domain.Handle{Username: username, Path: path},
	}
}

func skipped(ref string, cause domain.SkipCause, detail string) domain.Candidate {
	return domain.Candidate{
		Kind: domain.CandidateSkipped,
		Skip: domain.SkipReason{Ref: ref, Cause: cause, Detail: detail},
	}
}

// pathSegments режет путь по слешам, отбрасывая пустые сегменты.
func pathSegments(p string) []string {
	parts := strings.Split(p, "/")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
