package domain

import (
	"fmt"
	"strings"
)

// ShortLinkBase — каноническая форма ссылок на публичные чаты.
const ShortLinkBase = "https://t.me/"

// RefKind — происхождение сырой ссылки.
type RefKind string

const (
	RefMention       RefKind = "mention"
	RefURL           RefKind = "url"
	RefTextLink      RefKind = "text_link"
	RefForwardOrigin RefKind = "forward_origin"
)

// RawReference — ссылка на чат в том виде, в каком она встретилась в сообщении.
// Для text_link в URL лежит адрес, отличный от отображаемого текста.
// Для forward_origin в Text лежит username (может быть пустым), в Title название канала.
type RawReference struct {
	Kind  RefKind
	Text  string
	URL   string
	Title string
}

// Handle — нормализованная идентичность публичного чата.
type Handle struct {
	Username string
	// Path — хвост ссылки после username без ведущего и завершающего слеша (например, id поста).
	Path string
}

// String возвращает @username для голого хендла и полную ссылку, если есть путь.
func (h Handle) String() string {
	if h.Path == "" {
		return "@" + h.Username
	}
	return h.Link()
}

// Link всегда возвращает полную ссылку https://t.me/<username>[/<path>].
func (h Handle) Link() string {
	if h.Path == "" {
		return ShortLinkBase + h.Username
	}
	return ShortLinkBase + h.Username + "/" + h.Path
}

// Key возвращает ключ равенства: username и путь, регистр сохраняется.
func (h Handle) Key() string {
	return h.Username + "/" + h.Path
}

// Bare возвращает хендл без пути. Справочник понимает только такие.
func (h Handle) Bare() Handle {
	return Handle{Username: h.Username}
}

// IsBare сообщает, что у хендла нет пути.
func (h Handle) IsBare() bool {
	return h.Path == ""
}

// SkipCause — причина, по которой ссылка отброшена до резолва.
type SkipCause string

const (
	SkipPrivate      SkipCause = "private"
	SkipBot          SkipCause = "bot"
	SkipMalformed    SkipCause = "malformed"
	SkipHiddenOrigin SkipCause = "hidden_origin"
)

// SkipReason объясняет пользователю, почему ссылка не резолвилась.
type SkipReason struct {
	Ref    string
	Cause  SkipCause
	Detail string
}

func (s SkipReason) String() string {
	switch s.Cause {
	case SkipPrivate:
		return fmt.Sprintf("%s is private", s.Ref)
	case SkipBot:
		return fmt.Sprintf("%s is a bot", s.Ref)
	case SkipHiddenOrigin:
		return fmt.Sprintf("%q is a private channel", s.Ref)
	case SkipMalformed:
		if strings.HasPrefix(s.Ref, "@") {
			return fmt.Sprintf("%s is not a valid Telegram username", s.Ref)
		}
		if s.Detail != "" {
			return fmt.Sprintf("%s is not a valid Telegram link: %s", s.Ref, s.Detail)
		}
		return fmt.Sprintf("%s is not a valid Telegram link", s.Ref)
	default:
		return fmt.Sprintf("%s skipped: %s", s.Ref, s.Cause)
	}
}

// CandidateKind различает три исхода канонизации.
type CandidateKind int

const (
	CandidateIgnored CandidateKind = iota
	CandidateHandle
	CandidateSkipped
)

// Candidate — результат канонизации одной сырой ссылки.
type Candidate struct {
	Kind   CandidateKind
	Handle Handle
	Skip   SkipReason
}

// Extraction — результат сканирования одного сообщения.
type Extraction struct {
	Handles []Handle
	Skips   []SkipReason
}

// Empty сообщает, что в сообщении не нашлось ни одной ссылки, даже отброшенной.
func (e Extraction) Empty() bool {
	return len(e.Handles) == 0 && len(e.Skips) == 0
}

// ChatKind — тип сущности по данным справочника.
type ChatKind string

const (
	KindChannel    ChatKind = "channel"
	KindGroup      ChatKind = "group"
	KindSupergroup ChatKind = "supergroup"
	KindOther      ChatKind = "other"
)

// ParseChatKind переводит тип чата Bot API в ChatKind.
func ParseChatKind(s string) ChatKind {
	switch ChatKind(strings.ToLower(s)) {
	case KindChannel:
		return KindChannel
	case KindGroup:
		return KindGroup
	case KindSupergroup:
		return KindSupergroup
	default:
		return KindOther
	}
}

// Resolvable: успешными считаются только каналы и группы.
func (k ChatKind) Resolvable() bool {
	return k == KindChannel || k == KindGroup || k == KindSupergroup
}

// ChatInfo описывает ответ справочника.
type ChatInfo struct {
	Title string
	Kind  ChatKind
}

// ResolvedChat — успешно разрешенный чат.
type ResolvedChat struct {
	Handle Handle
	Title  string
	Kind   ChatKind
}

// OutcomeStatus — тег объединения Outcome.
type OutcomeStatus int

const (
	OutcomeSuccess OutcomeStatus = iota
	OutcomeFailure
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome — результат резолва одного хендла: либо Chat, либо Message с ошибкой.
type Outcome struct {
	Status  OutcomeStatus
	Handle  Handle
	Chat    ResolvedChat
	Message string
}

// Success строит успешный Outcome.
func Success(chat ResolvedChat) Outcome {
	return Outcome{Status: OutcomeSuccess, Handle: chat.Handle, Chat: chat}
}

// Failure строит неуспешный Outcome.
func Failure(h Handle, message string) Outcome {
	return Outcome{Status: OutcomeFailure, Handle: h, Message: message}
}

// Report — агрегированный результат обработки пачки.
type Report struct {
	Resolved   []ResolvedChat
	Failures   []Outcome
	Skips      []SkipReason
	Overflow   []Handle
	Overloaded bool
}

// Blocks содержит отрендеренные ответы. Каждый блок уже разбит на сообщения,
// укладывающиеся в лимит Telegram.
type Blocks struct {
	Errors   []string
	Titles   []string
	Overflow []string
}
