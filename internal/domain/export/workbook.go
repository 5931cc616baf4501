package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/tablegraph"
	"github.com/FACorreiaa/statement-ledger/pkg/money"
)

const (
	// DefaultSheet is the name of the ledger sheet.
	DefaultSheet = "Transactions"

	// numFmtAmount is the built-in "#,##0.00" format.
	numFmtAmount = 4
)

var columnWidths = []float64{12, 50, 15, 15, 15, 10, 18}

// WorkbookOptions controls the optional sections of the workbook.
type WorkbookOptions struct {
	Sheet    string
	Currency string
	// Metadata is written above the ledger as "Statement Information".
	Metadata    []tablegraph.KeyValue
	OmitSummary bool
}

// WriteWorkbook renders records as an xlsx document.
func WriteWorkbook(w io.Writer, records []record.TransactionRecord, opts WorkbookOptions) error {
	if opts.Sheet == "" {
		opts.Sheet = DefaultSheet
	}
	if opts.Currency == "" {
		opts.Currency = money.USD
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), opts.Sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	wb, err := newSheetWriter(f, opts.Sheet)
	if err != nil {
		return err
	}

	if len(opts.Metadata) > 0 {
		if err := wb.metadata(opts.Metadata); err != nil {
			return err
		}
	}
	if err := wb.ledger(records); err != nil {
		return err
	}
	if !opts.OmitSummary {
		summary, err := Summarize(records, opts.Currency)
		if err != nil {
			return err
		}
		if err := wb.summary(summary); err != nil {
			return err
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(opts.Sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetWriter appends sections to a sheet, tracking the next free row.
type sheetWriter struct {
	f       *excelize.File
	sheet   string
	row     int
	bold    int
	header  int
	amounts int
}

func newSheetWriter(f *excelize.File, sheet string) (*sheetWriter, error) {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	amounts, err := f.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	return &sheetWriter{f: f, sheet: sheet, row: 1, bold: bold, header: header, amounts: amounts}, nil
}

func (s *sheetWriter) cell(col int) string {
	return cellName(col, s.row)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func (s *sheetWriter) style(row, fromCol, toCol, style int) error {
	if err := s.f.SetCellStyle(s.sheet, cellName(fromCol, row), cellName(toCol, row), style); err != nil {
		return fmt.Errorf("failed to style row %d: %w", row, err)
	}
	return nil
}

func (s *sheetWriter) writeRow(values []any, style int) error {
	if err := s.f.SetSheetRow(s.sheet, s.cell(1), &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", s.row, err)
	}
	if style != 0 {
		if err := s.style(s.row, 1, len(values), style); err != nil {
			return err
		}
	}
	s.row++
	return nil
}

func (s *sheetWriter) metadata(kvs []tablegraph.KeyValue) error {
	if err := s.writeRow([]any{"Statement Information"}, s.bold); err != nil {
		return err
	}
	for _, kv := range kvs {
		if err := s.writeRow([]any{kv.Key, kv.Value}, 0); err != nil {
			return err
		}
	}
	s.row++
	return nil
}

func (s *sheetWriter) ledger(records []record.TransactionRecord) error {
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := s.writeRow(header, s.header); err != nil {
		return err
	}

	for _, r := range records {
		var debit, credit any = "", ""
		if r.Amount.IsNegative() {
			debit = r.Amount.Abs().InexactFloat64()
		} else {
			credit = r.Amount.InexactFloat64()
		}
		values := []any{r.ISODate(), r.Description, debit, credit, r.Balance.InexactFloat64(), string(r.Type), r.Reference}
		row := s.row
		if err := s.writeRow(values, 0); err != nil {
			return err
		}
		if err := s.style(row, 3, 5, s.amounts); err != nil {
			return err
		}
	}
	return nil
}

func (s *sheetWriter) summary(sum Summary) error {
	s.row++
	if err := s.writeRow([]any{"Summary"}, s.bold); err != nil {
		return err
	}
	rows := [][]any{
		{"Transactions", sum.Count},
		{"Total Debits", sum.Debits.ToDecimal().InexactFloat64()},
		{"Total Credits", sum.Credits.ToDecimal().InexactFloat64()},
		{"Net", sum.Net.ToDecimal().InexactFloat64()},
	}
	for i, values := range rows {
		row := s.row
		if err := s.writeRow(values, 0); err != nil {
			return err
		}
		if i > 0 {
			if err := s.style(row, 2, 2, s.amounts); err != nil {
				return err
			}
		}
	}
	return nil
}
