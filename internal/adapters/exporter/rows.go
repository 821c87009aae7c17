package exporter

import (
	"telegram-chat-resolver/internal/domain"
)

// Статусы строк отчета.
const (
	statusSkipped  = "skipped"
	statusFailed   = "failed"
	statusOverflow = "overflow"
)

// row — одна строка табличного отчета.
type row struct {
	Status  string
	Handle  string
	Details string
}

// reportRows раскладывает отчет в строки в том же порядке, что и ответы бота:
// пропуски, ошибки, успехи, переполнение.
func reportRows(r domain.Report) []row {
	rows := make([]row, 0, len(r.Skips)+len(r.Failures)+len(r.Resolved)+len(r.Overflow))
	for _, skip := range r.Skips {
		rows = append(rows, row{Status: statusSkipped, Handle: skip.Ref, Details: skip.String()})
	}
	for _, f := range r.Failures {
		rows = append(rows, row{Status: statusFailed, Handle: f.Handle.String(), Details: f.Message})
	}
	for _, chat := range r.Resolved {
		rows = append(rows, row{Status: string(chat.Kind), Handle: chat.Handle.String(), Details: chat.Title})
	}
	for _, h := range r.Overflow {
		rows = append(rows, row{Status: statusOverflow, Handle: h.Link()})
	}
	return rows
}
