package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/observability"
)

const (
	DefaultImportConcurrency = 8
	DefaultImportMaxRows     = 10000
	DefaultImportMaxBytes    = 5 << 20

	contentColumn = "content"
)

// ImportRow is one data row of an import file. Problem is set when the row
// could not be read and must be reported instead of ingested.
type ImportRow struct {
	Content string
	Problem string
}

// ImportRecord is what gets archived after an import completes.
type ImportRecord struct {
	UserID     int64
	Filename   string
	Raw        []byte
	Report     models.ImportReport
	ImportedAt time.Time
}

// ImportArchiver keeps a copy of completed imports. Failures are logged by the
// caller and never affect the report.
type ImportArchiver interface {
	ArchiveImport(ctx context.Context, rec ImportRecord) error
}

type ImportOptions struct {
	Concurrency int
	MaxRows     int
	MaxBytes    int64
}

// Importer runs bulk imports through the ingestion pipeline, one independent
// ingest per row.
type Importer struct {
	pipeline *Pipeline
	archive  ImportArchiver
	opts     ImportOptions
}

func NewImporter(pipeline *Pipeline, opts ImportOptions) *Importer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultImportConcurrency
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultImportMaxRows
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultImportMaxBytes
	}
	return &Importer{pipeline: pipeline, opts: opts}
}

// WithArchive sets where completed imports are archived.
func (im *Importer) WithArchive(a ImportArchiver) *Importer {
	im.archive = a
	return im
}

// MaxBytes is the largest accepted upload.
func (im *Importer) MaxBytes() int64 { return im.opts.MaxBytes }

// ImportCSV reads a CSV upload and imports every data row into the caller's
// account. File-level problems fail the whole request before any row is
// ingested; row-level problems only show up in the report.
func (im *Importer) ImportCSV(ctx context.Context, id Identity, filename string, r io.Reader) (*models.ImportReport, error) {
	if id.UserID == 0 {
		return nil, ErrUnauthorized
	}
	if filename != "" && !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, validationError("only CSV files are supported")
	}

	raw, err := io.ReadAll(io.LimitReader(r, im.opts.MaxBytes+1))
	if err != nil {
		return nil, validationError("could not read the uploaded file")
	}
	if int64(len(raw)) > im.opts.MaxBytes {
		return nil, validationError(fmt.Sprintf("file is larger than %d bytes", im.opts.MaxBytes))
	}
	if !utf8.Valid(raw) {
		return nil, validationError("file must be UTF-8 encoded")
	}

	rows, err := ParseCSV(raw, im.opts.MaxRows)
	if err != nil {
		return nil, err
	}

	report, err := im.Import(ctx, id, rows)
	if err != nil {
		return nil, err
	}

	if im.archive != nil {
		rec := ImportRecord{
			UserID:     id.UserID,
			Filename:   filename,
			Raw:        raw,
			Report:     *report,
			ImportedAt: time.Now().UTC(),
		}
		if err := im.archive.ArchiveImport(ctx, rec); err != nil {
			log.Warn().Err(err).Int64("user_id", id.UserID).Str("filename", filename).Msg("⚠️ failed to archive import")
		}
	}
	return report, nil
}

// ParseCSV extracts the content column from a CSV file with a header row.
// Data rows are numbered by physical line from 1, so blank lines between
// records count as empty rows. Trailing blank lines are ignored. A malformed
// row becomes an ImportRow with Problem set rather than failing the file.
func ParseCSV(data []byte, maxRows int) ([]ImportRow, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, validationError("file is empty")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, validationError("file is not valid CSV")
	}
	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), contentColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, validationError("CSV must have a 'content' column")
	}

	// next is the physical line where the following record should start.
	var consumed int64
	next := 1
	advance := func() {
		off := reader.InputOffset()
		next += bytes.Count(data[consumed:off], []byte("\n"))
		consumed = off
	}
	advance()

	rows := make([]ImportRow, 0)
	add := func(row ImportRow) error {
		if len(rows) == maxRows {
			return validationError(fmt.Sprintf("file has more than %d rows", maxRows))
		}
		rows = append(rows, row)
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		var start int
		switch {
		case errors.As(err, &parseErr):
			start = parseErr.StartLine
		case err != nil:
			return nil, validationError("file is not valid CSV")
		default:
			start, _ = reader.FieldPos(0)
		}
		for ; next < start; next++ {
			if err := add(ImportRow{Problem: "content must not be empty"}); err != nil {
				return nil, err
			}
		}

		var row ImportRow
		switch {
		case parseErr != nil:
			row = ImportRow{Problem: "malformed CSV row"}
		case col >= len(record):
			row = ImportRow{Problem: "missing content value"}
		default:
			row = ImportRow{Content: record[col]}
		}
		if err := add(row); err != nil {
			return nil, err
		}
		advance()
	}
	return rows, nil
}

// Import ingests rows concurrently with a bounded number of workers. Each row
// writes only its own result slot, so the report is ordered by row number no
// matter which rows finish first.
func (im *Importer) Import(ctx context.Context, id Identity, rows []ImportRow) (*models.ImportReport, error) {
	results := make([]error, len(rows))
	t := target{
		owner:     models.UserOwner(id.UserID),
		source:    models.SourceImport,
		accountID: id.UserID,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Concurrency)
	for i, row := range rows {
		if row.Problem != "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := im.pipeline.ingest(gctx, row.Content, nil, t)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &models.ImportReport{Errors: make([]models.ImportRowError, 0)}
	for i, row := range rows {
		reason := row.Problem
		if reason == "" && results[i] != nil {
			reason = rowFailureReason(results[i])
		}
		if reason == "" {
			report.Succeeded++
			continue
		}
		report.Failed++
		report.Errors = append(report.Errors, models.ImportRowError{Row: i + 1, Reason: reason})
	}
	observability.RecordImportRows(report.Succeeded, report.Failed)
	return report, nil
}

func rowFailureReason(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Reason
	}
	log.Error().Err(err).Msg("import row failed")
	return "internal error while storing the row"
}
