package exporter

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"telegram-chat-resolver/internal/domain"
)

func testReport() domain.Report {
	return domain.Report{
		Skips:    []domain.SkipReason{{Ref: "@helper_bot", Cause: domain.SkipBot}},
		Failures: []domain.Outcome{domain.Failure(domain.Handle{Username: "gone_channel"}, "Bad Request: chat not found")},
		Resolved: []domain.ResolvedChat{
			{Handle: domain.Handle{Username: "news_channel"}, Title: "Новости 日本", Kind: domain.KindChannel},
		},
		Overflow: []domain.Handle{{Username: "later_channel"}},
	}
}

func TestConsoleExporter(t *testing.T) {
	t.Run("Export выводит выровненную таблицу", func(t *testing.T) {
		var buf bytes.Buffer
		exporter := NewConsoleExporter(&buf, DefaultColumnWidths)

		require.NoError(t, exporter.Export(testReport()))

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 7)
		assert.Equal(t, "--- Chat References ---", lines[0])
		assert.Contains(t, lines[3], "@helper_bot is a bot")
		assert.Contains(t, lines[4], "Bad Request: chat not found")
		assert.Contains(t, lines[5], "Новости 日本")
		assert.Contains(t, lines[6], "https://t.me/later_channel")

		// Все строки таблицы одной ширины на экране.
		width := displayWidth(lines[1])
		for _, line := range lines[2:] {
			assert.Equal(t, width, displayWidth(line), line)
		}
	})

	t.Run("Export пустого отчета", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewConsoleExporter(&buf, DefaultColumnWidths).Export(domain.Report{}))
		assert.Contains(t, buf.String(), "No chat references found.")
	})

	t.Run("длинные значения обрезаются", func(t *testing.T) {
		assert.Equal(t, "abcd…", cell("abcdefgh", 5))
		assert.Equal(t, 5, displayWidth(cell("abcdefgh", 5)))
		assert.Equal(t, 6, displayWidth(cell("日本", 6)))
	})
}

func TestXLSXExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	exporter := NewXLSXExporter(path, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, exporter.Export(testReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Дата экспорта", "Статус", "Хендл", "Детали"}, rows[0])
	assert.Equal(t, []string{"skipped", "@helper_bot", "@helper_bot is a bot"}, rows[1][1:])
	assert.Equal(t, []string{"channel", "@news_channel", "Новости 日本"}, rows[3][1:])
	assert.Equal(t, []string{statusOverflow, "https://t.me/later_channel"}, rows[4][1:])
}

func displayWidth(s string) int {
	return runewidth.StringWidth(s)
}
