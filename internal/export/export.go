// Package export renders tables as CSV, JSON or HTML and stores the results
// as artifacts in a blob store.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"psidpanel/internal/blob"
	"psidpanel/internal/table"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Formats lists the supported encodings.
func Formats() []Format { return []Format{FormatCSV, FormatJSON, FormatHTML} }

// ParseFormat accepts a format name in any case.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", raw)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html"
	default:
		return "text/csv"
	}
}

// Artifact describes one stored export.
type Artifact struct {
	ID          string    `json:"id"`
	Table       string    `json:"table"`
	Format      Format    `json:"format"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Rows        int       `json:"rows"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Write renders t in format to w.
func Write(w io.Writer, format Format, t *table.Table) error {
	switch format {
	case FormatCSV:
		writer := csv.NewWriter(w)
		if err := writer.Write(t.Columns); err != nil {
			return err
		}
		if err := writer.WriteAll(t.Strings()); err != nil {
			return err
		}
		return writer.Error()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t.Records())
	case FormatHTML:
		_, err := io.WriteString(w, buildHTML(t))
		return err
	default:
		return fmt.Errorf("unsupported export format %s", format)
	}
}

// Render returns t encoded in format.
func Render(format Format, t *table.Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := Write(buf, format, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildHTML(t *table.Table) string {
	buf := &strings.Builder{}
	buf.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>")
	buf.WriteString(html.EscapeString(t.Name))
	buf.WriteString("</title></head><body><table>")
	buf.WriteString("<thead><tr>")
	for _, column := range t.Columns {
		buf.WriteString("<th>")
		buf.WriteString(html.EscapeString(column))
		buf.WriteString("</th>")
	}
	buf.WriteString("</tr></thead><tbody>")
	for _, row := range t.Strings() {
		buf.WriteString("<tr>")
		for _, cell := range row {
			buf.WriteString("<td>")
			buf.WriteString(html.EscapeString(cell))
			buf.WriteString("</td>")
		}
		buf.WriteString("</tr>")
	}
	buf.WriteString("</tbody></table></body></html>")
	return buf.String()
}

// Exporter stores rendered tables under prefix/exports/<table>/<id>.<ext>.
type Exporter struct {
	store  blob.Store
	prefix string
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New returns an exporter writing to store. A nil logger discards output.
func New(store blob.Store, prefix string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Export stores t once per format. Artifacts are returned in format order;
// on error, artifacts already written are left in place.
func (e *Exporter) Export(ctx context.Context, t *table.Table, formats ...Format) ([]Artifact, error) {
	if len(formats) == 0 {
		formats = []Format{FormatCSV}
	}
	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		payload, err := Render(format, t)
		if err != nil {
			return artifacts, fmt.Errorf("render %s as %s: %w", t.Name, format, err)
		}
		id := e.newID()
		key := path.Join(e.prefix, "exports", t.Name, id+"."+string(format))
		info, err := e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: format.ContentType(),
			Metadata: map[string]string{
				"table": t.Name,
				"rows":  strconv.Itoa(t.Len()),
			},
		})
		if err != nil {
			return artifacts, fmt.Errorf("store %s: %w", key, err)
		}
		url, err := e.store.PresignURL(ctx, key, blob.SignedURLOptions{})
		if err != nil && !errors.Is(err, blob.ErrUnsupported) {
			return artifacts, fmt.Errorf("presign %s: %w", key, err)
		}
		artifact := Artifact{
			ID:          id,
			Table:       t.Name,
			Format:      format,
			Key:         key,
			ContentType: format.ContentType(),
			SizeBytes:   info.Size,
			Rows:        t.Len(),
			URL:         url,
			CreatedAt:   e.now(),
		}
		e.logger.Info("export stored", "table", t.Name, "format", string(format), "key", key, "rows", t.Len())
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}
