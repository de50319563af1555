package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
	orderrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/order"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
	sheetName  = "Sales"
)

var header = []string{"Restaurant ID", "Name", "Order Count", "Total Sales"}

func summaryRow(restaurant *entity.Restaurant, summary orderrepo.Summary) []string {
	return []string{
		strconv.FormatInt(restaurant.ID, 10),
		restaurant.Name,
		strconv.Itoa(summary.Count),
		summary.Total.Decimal.StringFixed(2),
	}
}

// writeArtifact renders the header and the aggregate row in format.
func writeArtifact(w io.Writer, format string, row []string) error {
	switch format {
	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.WriteAll([][]string{header, row}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	case formatXLSX:
		f := excelize.NewFile()
		defer f.Close()

		if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
			return err
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(sheetName, "A2", &values); err != nil {
			return err
		}
		if _, err := f.WriteTo(w); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// artifactKey is unique per report so reports of the same month never share a file.
func artifactKey(report *entity.SalesReport, format string) string {
	return fmt.Sprintf("reports/sales_report_%d_%d_%02d_%d.%s", report.RestaurantID, report.Year, report.Month, report.ID, format)
}

func contentType(key string) string {
	if path.Ext(key) == "."+formatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
