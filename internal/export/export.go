// Package export renders the event log as tabular CSV or PDF documents.
package export

import (
	"time"

	"github.com/vbonduro/spaceaccess/internal/domain"
)

// Column headers of an event export, in order.
const (
	ColTimestamp = "TimestampUtc"
	ColEventType = "EventType"
	ColStudentID = "StudentId"
	ColFirstName = "FirstName"
	ColLastName  = "LastName"
	ColLocation  = "Location"
)

// EventHeaders is the fixed column order of an event export.
var EventHeaders = []string{ColTimestamp, ColEventType, ColStudentID, ColFirstName, ColLastName, ColLocation}

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// FromEvents builds a Dataset with one row per event, keeping the input
// order. Timestamps are UTC in RFC 3339 with nanoseconds so they round-trip.
func FromEvents(events []*domain.EventDetail) Dataset {
	rows := make([]map[string]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, map[string]string{
			ColTimestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
			ColEventType: string(e.Type),
			ColStudentID: e.ScannedStudentID,
			ColFirstName: e.FirstName,
			ColLastName:  e.LastName,
			ColLocation:  e.LocationName,
		})
	}
	return Dataset{Headers: EventHeaders, Rows: rows}
}

// Format is an export document format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" or "pdf"; blank means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", &domain.ValidationError{Field: "format", Message: "must be csv or pdf"}
	}
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) Ext() string {
	return "." + string(f)
}

// Title is printed above the PDF table.
const Title = "Access log"

// Render encodes the dataset in the given format.
func Render(f Format, data Dataset) ([]byte, error) {
	if f == FormatPDF {
		return NewPDFExporter().Render(data, Title)
	}
	return NewCSVExporter().Render(data)
}
