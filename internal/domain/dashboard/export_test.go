package dashboard

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"
)

var sampleRows = []DoctorRevenue{
	{Name: "Ann Vega", Specialization: "Cardiology", Reports: 2, RevenueMinor: 160000},
	{Name: "Bob, Jr.", Specialization: "General Medicine", Reports: 1, RevenueMinor: 50000},
}

func TestWriteRevenueCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRevenueCSV(&buf, sampleRows); err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(recs))
	}
	if recs[0][0] != "doctor" || recs[2][0] != "Bob, Jr." || recs[1][3] != "1600.00" {
		t.Errorf("unexpected records %v", recs)
	}
}

func TestWriteRevenuePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRevenuePDF(&buf, "CareLink", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), sampleRows); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("expected PDF output, got prefix %q", buf.Bytes()[:8])
	}
}

func TestWriteRevenuePDF_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRevenuePDF(&buf, "CareLink", time.Now(), nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("expected a document for an empty table")
	}
}
