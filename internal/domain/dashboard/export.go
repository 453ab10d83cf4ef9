package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WriteRevenueCSV writes one line per doctor after a header line.
func WriteRevenueCSV(w io.Writer, rows []DoctorRevenue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"doctor", "specialization", "reports", "revenue"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Name, r.Specialization, strconv.Itoa(r.Reports), FormatMinor(r.RevenueMinor)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRevenuePDF renders the revenue table as an A4 report.
func WriteRevenuePDF(w io.Writer, hospital string, generated time.Time, rows []DoctorRevenue) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, hospital, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 7, "Doctor revenue report, generated "+generated.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	widths := []float64{70, 60, 25, 35}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Doctor", "Specialization", "Reports", "Revenue"} {
		pdf.CellFormat(widths[i], 9, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	var total int64
	for _, r := range rows {
		pdf.CellFormat(widths[0], 8, r.Name, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 8, r.Specialization, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 8, strconv.Itoa(r.Reports), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, FormatMinor(r.RevenueMinor), "1", 1, "R", false, 0, "")
		total += r.RevenueMinor
	}
	if len(rows) == 0 {
		pdf.CellFormat(0, 8, "No data found", "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.Ln(2)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total: %s", FormatMinor(total)), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}
