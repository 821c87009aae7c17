package services

import (
	"fmt"
	"log/slog"
	"sort"
	"unicode/utf16"

	"telegram-chat-resolver/internal/domain"
)

// ExtractionOption — функциональная опция для настройки ExtractionService.
type ExtractionOption func(*ExtractionService)

// WithExtractionLogger устанавливает логгер для сервиса извлечения.
func WithExtractionLogger(l *slog.Logger) ExtractionOption {
	return func(s *ExtractionService) {
		if l != nil {
			s.log = l
		}
	}
}

// ExtractionService извлекает ссылки на чаты из сообщения.
// Сервис не обращается к внешним системам и никогда не паникует на битых данных.
type ExtractionService struct {
	policy Policy
	log    *slog.Logger
}

// NewExtractionService создает новый экземпляр ExtractionService.
func NewExtractionService(policy Policy, opts ...ExtractionOption) *ExtractionService {
	s := &ExtractionService{
		policy: policy,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract сканирует источник пересылки, затем сущности в порядке следования в тексте.
// Хендлы дедуплицируются по Key и сортируются по строковому виду, причины пропуска
// сортируются по тексту строки.
func (s *ExtractionService) Extract(msg *domain.Message) domain.Extraction {
	if msg == nil {
		return domain.Extraction{}
	}

	refs, broken := References(msg)

	// Мапы для отслеживания уникальных хендлов и причин пропуска
	uniqueHandles := make(map[string]domain.Handle)
	uniqueSkips := make(map[string]domain.SkipReason)
	for _, skip := range broken {
		uniqueSkips[skip.String()] = skip
	}

	for _, ref := range refs {
		c := Canonicalize(ref, s.policy)
		switch c.Kind {
		case domain.CandidateHandle:
			if _, ok := uniqueHandles[c.Handle.Key()]; !ok {
				uniqueHandles[c.Handle.Key()] = c.Handle
			}
		case domain.CandidateSkipped:
			uniqueSkips[c.Skip.String()] = c.Skip
		case domain.CandidateIgnored:
		}
	}

	result := domain.Extraction{
		Handles: make([]domain.Handle, 0, len(uniqueHandles)),
		Skips:   make([]domain.SkipReason, 0, len(uniqueSkips)),
	}
	for _, h := range uniqueHandles {
		result.Handles = append(result.Handles, h)
	}
	for _, skip := range uniqueSkips {
		result.Skips = append(result.Skips, skip)
	}
	sort.Slice(result.Handles, func(i, j int) bool {
		return result.Handles[i].String() < result.Handles[j].String()
	})
	sort.Slice(result.Skips, func(i, j int) bool {
		return result.Skips[i].String() < result.Skips[j].String()
	})

	s.log.Debug("References extracted",
		"references", len(refs),
		"handles", len(result.Handles),
		"skips", len(result.Skips),
	)
	return result
}

// References собирает сырые ссылки сообщения: сначала источник пересылки (не больше одного),
// затем сущности по возрастанию смещения. Сущности с границами за пределами текста
// возвращаются отдельно как malformed.
func References(msg *domain.Message) ([]domain.RawReference, []domain.SkipReason) {
	var (
		refs   []domain.RawReference
		broken []domain.SkipReason
	)

	if origin := msg.ForwardOrigin; origin != nil && origin.Type == domain.ForwardOriginChannel {
		refs = append(refs, domain.RawReference{
			Kind:  domain.RefForwardOrigin,
			Text:  origin.Chat.Username,
			Title: origin.Chat.Title,
		})
	}

	text, entities := msg.Body()
	if len(entities) == 0 {
		return refs, broken
	}

	ordered := make([]domain.Entity, len(entities))
	copy(ordered, entities)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Offset < ordered[j].Offset })

	units := utf16.Encode([]rune(text))
	for _, e := range ordered {
		var kind domain.RefKind
		switch e.Type {
		case domain.EntityMention:
			kind = domain.RefMention
		case domain.EntityURL:
			kind = domain.RefURL
		case domain.EntityTextLink:
			kind = domain.RefTextLink
		default:
			continue
		}

		span, ok := utf16Slice(units, e.Offset, e.Length)
		if !ok && kind != domain.RefTextLink {
			broken = append(broken, domain.SkipReason{
				Ref:    fmt.Sprintf("%s entity at offset %d", e.Type, e.Offset),
				Cause:  domain.SkipMalformed,
				Detail: "span out of text bounds",
			})
			continue
		}
		refs = append(refs, domain.RawReference{Kind: kind, Text: span, URL: e.URL})
	}

	return refs, broken
}

// utf16Slice вырезает фрагмент по смещению и длине в UTF-16 code units.
// Хвост, выходящий за конец текста, обрезается; фрагмент, начинающийся за концом, считается битым.
func utf16Slice(units []uint16, offset, length int) (string, bool) {
	if offset < 0 || length <= 0 || offset >= len(units) {
		return "", false
	}
	end := offset + length
	if end > len(units) {
		end = len(units)
	}
	return string(utf16.Decode(units[offset:end])), true
}
