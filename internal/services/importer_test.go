package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

func TestImportReportsEmptyRowsInOrder(t *testing.T) {
	h := newHarness(t, nil)
	user := h.user(t, "ana@example.com", models.RoleUser)

	csvData := strings.Join([]string{
		"content,author",
		"Great staff,a",
		",b",
		"Terrible wait time,c",
		"The room was clean,d",
		"   ,e",
		"Fine,f",
	}, "\n")

	report, err := h.importer.ImportCSV(context.Background(), user, "reviews.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	want := &models.ImportReport{
		Succeeded: 4,
		Failed:    2,
		Errors: []models.ImportRowError{
			{Row: 2, Reason: "content must not be empty"},
			{Row: 5, Reason: "content must not be empty"},
		},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}

	reviews, err := h.store.ListReviews(context.Background(), models.AccountScope(user.UserID), 0, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 4)
	for _, r := range reviews {
		assert.Equal(t, models.SourceImport, r.Source)
		assert.Equal(t, models.UserOwner(user.UserID), r.Owner)
	}
}

func TestImportSingleColumnBlankLinesAreFailedRows(t *testing.T) {
	h := newHarness(t, nil)
	user := h.user(t, "ana@example.com", models.RoleUser)

	csvData := "content\nGreat staff\n\nTerrible wait\nClean room\n\nFine\n\n\n"
	report, err := h.importer.ImportCSV(context.Background(), user, "reviews.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	want := &models.ImportReport{
		Succeeded: 4,
		Failed:    2,
		Errors: []models.ImportRowError{
			{Row: 2, Reason: "content must not be empty"},
			{Row: 5, Reason: "content must not be empty"},
		},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestImportKeepsRowOrderUnderConcurrency(t *testing.T) {
	// Early rows finish last so completion order is reversed.
	var started atomic.Int32
	slow := ClassifierFunc(func(ctx context.Context, text string) (Judgment, error) {
		n := started.Add(1)
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		if strings.HasPrefix(text, "bad") {
			return Judgment{}, errors.New("unclassifiable")
		}
		return Judgment{Label: models.SentimentNeutral, Score: 0.5}, nil
	})
	h := newHarness(t, slow)
	user := h.user(t, "ana@example.com", models.RoleUser)

	rows := []ImportRow{
		{Content: "bad one"}, {Content: "ok"}, {Problem: "malformed CSV row"},
		{Content: "ok"}, {Content: "bad two"}, {Content: "ok"},
	}
	report, err := h.importer.Import(context.Background(), user, rows)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, []models.ImportRowError{
		{Row: 1, Reason: "sentiment classification failed"},
		{Row: 3, Reason: "malformed CSV row"},
		{Row: 5, Reason: "sentiment classification failed"},
	}, report.Errors)
}

func TestImportBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	c := ClassifierFunc(func(ctx context.Context, text string) (Judgment, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return Judgment{Label: models.SentimentPositive, Score: 0.7}, nil
	})
	h := newHarness(t, c)
	h.importer = NewImporter(h.pipeline, ImportOptions{Concurrency: 3})
	user := h.user(t, "ana@example.com", models.RoleUser)

	rows := make([]ImportRow, 30)
	for i := range rows {
		rows[i] = ImportRow{Content: "row"}
	}
	report, err := h.importer.Import(context.Background(), user, rows)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Succeeded)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestImportFileLevelFailures(t *testing.T) {
	h := newHarness(t, nil)
	h.importer = NewImporter(h.pipeline, ImportOptions{MaxRows: 2, MaxBytes: 64})
	user := h.user(t, "ana@example.com", models.RoleUser)

	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"wrong extension", "reviews.xlsx", "content\nok"},
		{"empty file", "reviews.csv", "  \n"},
		{"no content column", "reviews.csv", "text,author\nhello,ana"},
		{"too many rows", "reviews.csv", "content\na\nb\nc"},
		{"too large", "reviews.csv", "content\n" + strings.Repeat("x", 80)},
		{"not utf8", "reviews.csv", "content\n\xff\xfe"},
		{"broken header", "reviews.csv", "\"content\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report, err := h.importer.ImportCSV(context.Background(), user, tc.filename, strings.NewReader(tc.data))
			assert.ErrorIs(t, err, ErrValidation)
			assert.Nil(t, report)
		})
	}

	counts, _, err := h.store.Summarize(context.Background(), models.AccountScope(user.UserID), 5)
	require.NoError(t, err)
	assert.Zero(t, counts.Total())
}

func TestParseCSV(t *testing.T) {
	data := "\xef\xbb\xbfId, CONTENT \n1,hello\n2\n3,\"multi\nline\"\n4,\"bro\"ken\"\n5,last\n"

	rows, err := ParseCSV([]byte(data), 100)
	require.NoError(t, err)
	assert.Equal(t, []ImportRow{
		{Content: "hello"},
		{Problem: "missing content value"},
		{Content: "multi\nline"},
		{Problem: "malformed CSV row"},
		{Content: "last"},
	}, rows)
}

func TestParseCSVNumbersRowsByLine(t *testing.T) {
	data := "content\n\nfirst\n\"two\nlines\"\n\n\"bad\"x\"\nlast\r\n\r\n"

	rows, err := ParseCSV([]byte(data), 100)
	require.NoError(t, err)
	assert.Equal(t, []ImportRow{
		{Problem: "content must not be empty"},
		{Content: "first"},
		{Content: "two\nlines"},
		{Problem: "content must not be empty"},
		{Problem: "malformed CSV row"},
		{Content: "last"},
	}, rows)
}

func TestParseCSVBlankLinesCountTowardRowLimit(t *testing.T) {
	_, err := ParseCSV([]byte("content\na\n\n\nb\n"), 3)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseCSVHeaderOnly(t *testing.T) {
	rows, err := ParseCSV([]byte("content\n"), 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

type recordingArchive struct {
	mu      sync.Mutex
	records []ImportRecord
	err     error
}

func (a *recordingArchive) ArchiveImport(ctx context.Context, rec ImportRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return a.err
}

func TestImportArchivesReportAndIgnoresArchiveFailure(t *testing.T) {
	h := newHarness(t, nil)
	archive := &recordingArchive{err: errors.New("mongo down")}
	h.importer.WithArchive(archive)
	user := h.user(t, "ana@example.com", models.RoleUser)

	report, err := h.importer.ImportCSV(context.Background(), user, "r.csv", strings.NewReader("content\nGreat\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	require.Len(t, archive.records, 1)
	rec := archive.records[0]
	assert.Equal(t, user.UserID, rec.UserID)
	assert.Equal(t, "r.csv", rec.Filename)
	assert.Equal(t, "content\nGreat\n", string(rec.Raw))
	assert.Equal(t, *report, rec.Report)
}
