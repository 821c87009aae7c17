package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/ports"
)

// ColumnWidths задает ширину колонок консольной таблицы.
type ColumnWidths struct {
	Status  int
	Handle  int
	Details int
}

// DefaultColumnWidths — ширина колонок по умолчанию.
var DefaultColumnWidths = ColumnWidths{Status: 10, Handle: 36, Details: 48}

// ConsoleExporter реализует интерфейс Exporter для вывода отчета выровненной таблицей.
type ConsoleExporter struct {
	out    io.Writer
	widths ColumnWidths
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter.
func NewConsoleExporter(out io.Writer, widths ColumnWidths) ports.Exporter {
	return &ConsoleExporter{out: out, widths: widths}
}

// Export печатает отчет. Ширина считается через runewidth, чтобы кириллица,
// CJK и эмодзи в названиях каналов не ломали выравнивание.
func (e *ConsoleExporter) Export(report domain.Report) error {
	rows := reportRows(report)

	var sb strings.Builder
	sb.WriteString("--- Chat References ---\n")
	if len(rows) == 0 {
		sb.WriteString("No chat references found.\n")
		_, err := io.WriteString(e.out, sb.String())
		return err
	}

	e.writeLine(&sb, row{Status: "Status", Handle: "Handle", Details: "Details"})
	sb.WriteString(fmt.Sprintf("|%s|%s|%s|\n",
		strings.Repeat("-", e.widths.Status+2),
		strings.Repeat("-", e.widths.Handle+2),
		strings.Repeat("-", e.widths.Details+2),
	))
	for _, r := range rows {
		e.writeLine(&sb, r)
	}
	if report.Overloaded {
		sb.WriteString(fmt.Sprintf("Only the first %d references were resolved.\n", len(report.Resolved)+len(report.Failures)))
	}

	if _, err := io.WriteString(e.out, sb.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (e *ConsoleExporter) writeLine(sb *strings.Builder, r row) {
	sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
		cell(r.Status, e.widths.Status),
		cell(r.Handle, e.widths.Handle),
		cell(r.Details, e.widths.Details),
	))
}

// cell обрезает значение до ширины колонки и добивает пробелами.
func cell(s string, width int) string {
	s = strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\n", " ")
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
