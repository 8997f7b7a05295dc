// Package export renders a finished device listing into downloadable
// report formats. Writers take a fully materialized slice of rows, so
// callers decide what to include and exporters never touch live scan
// state.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// Row is one device line in a report.
type Row struct {
	IP        string
	MAC       string
	Vendor    string
	Hostname  string
	Name      string
	Comment   string
	Online    bool
	LatencyMS *float64
	LastSeen  *time.Time
}

// Meta describes the scan the rows came from.
type Meta struct {
	Network     string
	GeneratedAt time.Time
}

var columns = []string{"IP", "MAC", "Vendor", "Hostname", "Name", "Comment", "Online", "Latency (ms)", "Last Seen"}

func (r Row) cells() []string {
	online := "no"
	if r.Online {
		online = "yes"
	}
	latency := ""
	if r.LatencyMS != nil {
		latency = strconv.FormatFloat(*r.LatencyMS, 'f', 1, 64)
	}
	seen := ""
	if r.LastSeen != nil {
		seen = r.LastSeen.Format(time.RFC3339)
	}
	return []string{r.IP, r.MAC, r.Vendor, r.Hostname, r.Name, r.Comment, online, latency, seen}
}

// ContentType returns the MIME type for a format name, or an error for
// formats this package does not render.
func ContentType(format string) (string, error) {
	switch format {
	case "csv":
		return "text/csv", nil
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	case "pdf":
		return "application/pdf", nil
	}
	return "", fmt.Errorf("unsupported export format %q", format)
}

// Write renders rows in the named format.
func Write(w io.Writer, format string, meta Meta, rows []Row) error {
	switch format {
	case "csv":
		return WriteCSV(w, rows)
	case "xlsx":
		return WriteXLSX(w, meta, rows)
	case "pdf":
		return WritePDF(w, meta, rows)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
