package exporter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/ports"
)

const xlsxSheetName = "Чаты"

// XLSXExporter реализует интерфейс Exporter для сохранения отчета в Excel-файл.
type XLSXExporter struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewXLSXExporter создает экспортер, пишущий отчет в файл по пути path.
func NewXLSXExporter(path string, logger *slog.Logger) ports.Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXExporter{path: path, logger: logger, now: time.Now}
}

// Export сохраняет отчет одной таблицей: дата, статус, хендл, детали.
func (e *XLSXExporter) Export(report domain.Report) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Error("failed to close excel file", slog.String("error", err.Error()))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{"Дата экспорта", "Статус", "Хендл", "Детали"}
	for i, h := range headers {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheetName, cellName, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	exportDate := e.now().Format(time.RFC3339)
	for i, r := range reportRows(report) {
		values := []string{exportDate, r.Status, r.Handle, r.Details}
		for col, v := range values {
			cellName, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(xlsxSheetName, cellName, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("failed to save %s: %w", e.path, err)
	}
	e.logger.Info("Report saved", "path", e.path)
	return nil
}
