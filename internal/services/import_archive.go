package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

const (
	importReportsCollection = "import_reports"
	importUploadFolder      = "sentimentpulse/imports"
	archiveTimeout          = 15 * time.Second
	maxImportHistory        = 100
)

// RawUploader stores raw files and returns a retrievable URL.
type RawUploader interface {
	UploadRaw(ctx context.Context, data []byte, folder, publicID string) (string, error)
}

// ImportSummary is one archived import as shown in the import history.
type ImportSummary struct {
	ID         primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	UserID     int64                   `bson:"user_id" json:"-"`
	Filename   string                  `bson:"filename" json:"filename"`
	FileURL    string                  `bson:"file_url,omitempty" json:"file_url,omitempty"`
	SizeBytes  int                     `bson:"size_bytes" json:"size_bytes"`
	Succeeded  int                     `bson:"succeeded" json:"succeeded"`
	Failed     int                     `bson:"failed" json:"failed"`
	Errors     []models.ImportRowError `bson:"errors" json:"errors"`
	ImportedAt time.Time               `bson:"imported_at" json:"imported_at"`
}

// ImportArchive records completed imports in MongoDB and, when an uploader
// is configured, keeps the original file in Cloudinary.
type ImportArchive struct {
	collection *mongo.Collection
	uploader   RawUploader
}

func NewImportArchive(db *mongo.Database, uploader RawUploader) *ImportArchive {
	return &ImportArchive{collection: db.Collection(importReportsCollection), uploader: uploader}
}

// EnsureIndexes configures the import history index. Called on startup after
// Mongo has connected.
func (a *ImportArchive) EnsureIndexes(ctx context.Context) error {
	_, err := a.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "imported_at", Value: -1},
		},
		Options: options.Index().SetName("idx_user_imported_at"),
	})
	return err
}

// ArchiveImport implements ImportArchiver.
func (a *ImportArchive) ArchiveImport(ctx context.Context, rec ImportRecord) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	doc := newImportSummary(rec)
	if a.uploader != nil {
		url, err := a.uploader.UploadRaw(ctx, rec.Raw, importUploadFolder, importPublicID(rec))
		if err != nil {
			return fmt.Errorf("upload import file: %w", err)
		}
		doc.FileURL = url
	}

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert import report: %w", err)
	}
	return nil
}

// ListImports returns the caller's most recent imports, newest first.
func (a *ImportArchive) ListImports(ctx context.Context, id Identity, limit int64) ([]ImportSummary, error) {
	if id.UserID == 0 {
		return nil, ErrUnauthorized
	}
	if limit <= 0 || limit > maxImportHistory {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "imported_at", Value: -1}}).
		SetLimit(limit)

	cur, err := a.collection.Find(ctx, bson.M{"user_id": id.UserID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find imports: %w", err)
	}
	defer cur.Close(ctx)

	imports := make([]ImportSummary, 0)
	if err := cur.All(ctx, &imports); err != nil {
		return nil, fmt.Errorf("decode imports: %w", err)
	}
	return imports, nil
}

func newImportSummary(rec ImportRecord) ImportSummary {
	errs := rec.Report.Errors
	if errs == nil {
		errs = []models.ImportRowError{}
	}
	return ImportSummary{
		UserID:     rec.UserID,
		Filename:   rec.Filename,
		SizeBytes:  len(rec.Raw),
		Succeeded:  rec.Report.Succeeded,
		Failed:     rec.Report.Failed,
		Errors:     errs,
		ImportedAt: rec.ImportedAt.UTC(),
	}
}

// importPublicID builds a unique, readable asset id such as
// "user-7/20260102T030405-reviews-<uuid>".
func importPublicID(rec ImportRecord) string {
	base := strings.TrimSuffix(filepath.Base(rec.Filename), filepath.Ext(rec.Filename))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, base)
	if strings.Trim(base, "-") == "" {
		base = "import"
	}
	return "user-" + strconv.FormatInt(rec.UserID, 10) + "/" +
		rec.ImportedAt.UTC().Format("20060102T150405") + "-" + base + "-" + uuid.NewString()
}
