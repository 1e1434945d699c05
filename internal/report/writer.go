// Package report materializes load reports as JSON and CSV artifacts in a
// blob store.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pdxgraph/internal/blob"
	"pdxgraph/internal/core"
)

// Format names an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Artifact describes one stored report file.
type Artifact struct {
	Key         string `json:"key"`
	Format      Format `json:"format"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Rows        int    `json:"rows"`
}

// Writer stores reports under <prefix>/<provider>/<id>.<format>.
type Writer struct {
	store   blob.Store
	prefix  string
	formats []Format
	newID   func() string
}

// NewWriter returns a Writer emitting both formats.
func NewWriter(store blob.Store, prefix string) *Writer {
	return &Writer{
		store:   store,
		prefix:  strings.Trim(prefix, "/"),
		formats: []Format{FormatJSON, FormatCSV},
		newID:   uuid.NewString,
	}
}

// Write materializes r in every configured format. All artifacts of one
// call share an id.
func (w *Writer) Write(ctx context.Context, r *core.Report) ([]Artifact, error) {
	id := w.newID()
	out := make([]Artifact, 0, len(w.formats))
	for _, f := range w.formats {
		payload, rows, contentType, err := materialize(f, r)
		if err != nil {
			return out, err
		}
		key := path.Join(w.prefix, r.Provider, id+"."+string(f))
		info, err := w.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: contentType,
			Metadata: map[string]string{
				"provider": r.Provider,
				"rows":     strconv.Itoa(rows),
				"failed":   strconv.FormatBool(r.Failed()),
			},
		})
		if err != nil {
			return out, fmt.Errorf("store %s: %w", key, err)
		}
		size := info.Size
		if size == 0 {
			size = int64(len(payload))
		}
		out = append(out, Artifact{Key: key, Format: f, ContentType: contentType, SizeBytes: size, Rows: rows})
	}
	return out, nil
}

// findingColumns is the CSV header of the findings table.
var findingColumns = []string{"source", "severity", "stage", "table", "column", "row", "message"}

// findings flattens validation defects and row issues into CSV records.
func findings(r *core.Report) [][]string {
	var rows [][]string
	for _, d := range r.Validation {
		rows = append(rows, []string{"validation", string(core.SeverityError), "", d.Table, d.Column, strconv.Itoa(d.Row), d.Error()})
	}
	for _, i := range r.Issues {
		rows = append(rows, []string{"pipeline", string(i.Severity), i.Stage, i.Table, "", strconv.Itoa(i.Row), i.Message})
	}
	if r.Error != "" {
		rows = append(rows, []string{"load", string(core.SeverityError), "", "", "", "", r.Error})
	}
	return rows
}

func materialize(format Format, r *core.Report) ([]byte, int, string, error) {
	records := findings(r)
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, 0, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, len(records), "application/json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(findingColumns); err != nil {
			return nil, 0, "", err
		}
		if err := writer.WriteAll(records); err != nil {
			return nil, 0, "", err
		}
		return buf.Bytes(), len(records), "text/csv", nil
	default:
		return nil, 0, "", fmt.Errorf("unsupported report format %s", format)
	}
}
