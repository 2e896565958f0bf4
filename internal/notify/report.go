package notify

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/xenking/storefront/internal/domain/order"
)

// Sheet names of the order report.
const (
	OrderSheet = "order"
	CartSheet  = "cart"
)

const reportDateLayout = "2006-01-02 15:04"

// ReportName returns the attachment file name for an order.
func ReportName(o *order.Order) string {
	return fmt.Sprintf("order_%d.xlsx", o.ID)
}

// Report renders the order as an xlsx workbook with an order summary sheet
// and a sheet of cart lines. Column widths fit their longest cell.
func Report(o *order.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", OrderSheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}
	if _, err := f.NewSheet(CartSheet); err != nil {
		return nil, errors.Wrap(err, "create cart sheet")
	}

	summary := [][]any{
		{"ID", "Status", "Name", "Phone", "Date", "Total"},
		{o.ID, o.Status.Display(), o.Name, o.Phone, o.CreatedAt.Format(reportDateLayout), o.Total.StringFixed(2)},
	}
	if err := writeRows(f, OrderSheet, summary); err != nil {
		return nil, err
	}

	lines := make([][]any, 0, len(o.Lines)+1)
	lines = append(lines, []any{"Product", "Price", "Quantity", "Total"})
	for _, l := range o.Lines {
		lines = append(lines, []any{l.Title, l.Price.StringFixed(2), l.Quantity, l.Total().StringFixed(2)})
	}
	if err := writeRows(f, CartSheet, lines); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	var widths []int
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "write %s row %d", sheet, i+1)
		}
		for j, v := range row {
			if j >= len(widths) {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], utf8.RuneCountInString(fmt.Sprint(v)))
		}
	}
	for j, w := range widths {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return errors.Wrap(err, "column name")
		}
		if err := f.SetColWidth(sheet, col, col, ColumnWidth(w)); err != nil {
			return errors.Wrapf(err, "set %s column %s width", sheet, col)
		}
	}
	return nil
}

// ColumnWidth returns the sheet width for a column whose longest cell has
// n characters.
func ColumnWidth(n int) float64 {
	return float64(n+2) * 1.2
}
