package services

import (
	"html"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"telegram-chat-resolver/internal/domain"
)

// MaxMessageLength — лимит Telegram на длину текста сообщения в UTF-16 code units.
const MaxMessageLength = 4096

// RenderReport превращает отчет в блоки ответов: ошибки и пропуски простым текстом,
// заголовки в HTML, переполнение списком ссылок.
func RenderReport(r domain.Report) domain.Blocks {
	errorLines := make([]string, 0, len(r.Skips)+len(r.Failures))
	for _, skip := range r.Skips {
		errorLines = append(errorLines, skip.String())
	}
	for _, f := range r.Failures {
		errorLines = append(errorLines, f.Message)
	}

	titleLines := make([]string, 0, len(r.Resolved))
	for _, chat := range r.Resolved {
		titleLines = append(titleLines, TitleLine(chat))
	}

	overflowLines := make([]string, 0, len(r.Overflow))
	for _, h := range r.Overflow {
		overflowLines = append(overflowLines, h.Link())
	}

	return domain.Blocks{
		Errors:   SplitMessages(errorLines, MaxMessageLength),
		Titles:   SplitMessages(titleLines, MaxMessageLength),
		Overflow: SplitMessages(overflowLines, MaxMessageLength),
	}
}

// TitleLine рендерит успешный резолв в HTML. Голый хендл выводится как
// "@username Title", хендл с путем выводится как ссылка с заголовком.
func TitleLine(chat domain.ResolvedChat) string {
	title := html.EscapeString(chat.Title)
	if chat.Handle.IsBare() {
		return chat.Handle.String() + " " + title
	}
	return `<a href="` + html.EscapeString(chat.Handle.Link()) + `">` + title + `</a>`
}

// RenderCollected выводит результат извлечения без резолва: сначала пропуски, затем ссылки.
func RenderCollected(ex domain.Extraction) []string {
	lines := make([]string, 0, len(ex.Skips)+len(ex.Handles))
	for _, skip := range ex.Skips {
		lines = append(lines, skip.String())
	}
	for _, h := range ex.Handles {
		lines = append(lines, h.Link())
	}
	return SplitMessages(lines, MaxMessageLength)
}

// SplitMessages склеивает строки через перевод строки в сообщения длиной не более limit
// UTF-16 code units. Разрез идет по границам строк; строка длиннее лимита режется по рунам.
func SplitMessages(lines []string, limit int) []string {
	if len(lines) == 0 {
		return nil
	}

	var (
		messages []string
		current  strings.Builder
		size     int
	)
	flush := func() {
		if current.Len() > 0 {
			messages = append(messages, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range lines {
		for _, part := range splitLine(line, limit) {
			n := utf16Len(part)
			if size > 0 && size+1+n > limit {
				flush()
			}
			if size > 0 {
				current.WriteByte('\n')
				size++
			}
			current.WriteString(part)
			size += n
		}
	}
	flush()

	return messages
}

// splitLine режет одну строку на куски не длиннее limit.
func splitLine(line string, limit int) []string {
	if utf16Len(line) <= limit {
		return []string{line}
	}

	var (
		parts []string
		start int
		size  int
	)
	for i, r := range line {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if size+n > limit {
			parts = append(parts, line[start:i])
			start, size = i, 0
		}
		size += n
	}
	if start < len(line) {
		parts = append(parts, line[start:])
	}
	return parts
}

func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
