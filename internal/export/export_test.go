package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func sampleRows() []Row {
	latency := 4.2
	seen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []Row{
		{IP: "192.168.1.1", MAC: "B8:27:EB:11:22:33", Vendor: "Raspberry Pi Foundation", Hostname: "gateway", Name: "router", Online: true, LatencyMS: &latency, LastSeen: &seen},
		{IP: "192.168.1.2", Online: false},
	}
}

func sampleMeta() Meta {
	return Meta{Network: "192.168.1.0/24", GeneratedAt: time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[0][0] != "IP" || records[0][len(records[0])-1] != "Last Seen" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "192.168.1.1" || records[1][6] != "yes" || records[1][7] != "4.2" {
		t.Fatalf("unexpected online row: %v", records[1])
	}
	if records[2][6] != "no" || records[2][7] != "" || records[2][8] != "" {
		t.Fatalf("offline row must leave latency and last-seen blank: %v", records[2])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleMeta(), sampleRows()); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	// Zip container magic.
	if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
		t.Fatalf("output is not an xlsx archive")
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleMeta(), sampleRows()); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a pdf document")
	}
}

func TestWriteDispatchAndContentType(t *testing.T) {
	for _, format := range []string{"csv", "xlsx", "pdf"} {
		var buf bytes.Buffer
		if err := Write(&buf, format, sampleMeta(), sampleRows()); err != nil {
			t.Fatalf("write %s: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Fatalf("empty %s output", format)
		}
		if _, err := ContentType(format); err != nil {
			t.Fatalf("content type %s: %v", format, err)
		}
	}

	if err := Write(&bytes.Buffer{}, "txt", sampleMeta(), nil); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
	if _, err := ContentType("txt"); err == nil {
		t.Fatalf("expected unsupported content type error")
	}
}
