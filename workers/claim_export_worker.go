// workers/claim_export_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"item-claim-system/metrics"
	"item-claim-system/models"
	"item-claim-system/services"
	"item-claim-system/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	defaultExportBatch = 1000

	// DefaultSettleDelay is how old a claim must be before it is exported.
	DefaultSettleDelay = 2 * time.Minute
)

// ExportLog remembers how far previous exports got.
type ExportLog interface {
	LastExportedAt(ctx context.Context) (time.Time, error)
	Record(ctx context.Context, export *models.ClaimExport) error
}

// ClaimExporter ships new claims to object storage as JSON Lines so fulfilment can
// deliver the items. Each run picks up where the last recorded export stopped.
//
// created_at is stamped by the app before the insert commits, so rows can become
// visible out of timestamp order. Only claims older than SettleDelay are exported;
// a row committing later than that after its timestamp would still be missed.
type ClaimExporter struct {
	SettleDelay time.Duration

	repo      services.ClaimRepository
	uploader  utils.ObjectUploader
	exportLog ExportLog
	prefix    string
	batchSize int
	now       func() time.Time

	mu sync.Mutex // one run at a time
}

func NewClaimExporter(repo services.ClaimRepository, uploader utils.ObjectUploader, exportLog ExportLog, storeName string) *ClaimExporter {
	return &ClaimExporter{
		SettleDelay: DefaultSettleDelay,
		repo:        repo,
		uploader:    uploader,
		exportLog:   exportLog,
		prefix:      "exports/" + slug.Make(storeName),
		batchSize:   defaultExportBatch,
		now:         time.Now,
	}
}

// RunOnce exports at most one batch and returns the number of claims written.
func (e *ClaimExporter) RunOnce(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	since, err := e.exportLog.LastExportedAt(ctx)
	if err != nil {
		metrics.ObserveExport("error", 0)
		return 0, fmt.Errorf("read export cursor: %w", err)
	}

	claims, err := e.repo.ListCreatedAfter(ctx, since, e.batchSize)
	if err != nil {
		metrics.ObserveExport("error", 0)
		return 0, err
	}
	claims = settledOnly(claims, e.now().Add(-e.SettleDelay))
	if len(claims) == 0 {
		log.Printf("[EXPORT] ✅ No new claims since %s", since.Format(time.RFC3339))
		metrics.ObserveExport("empty", 0)
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range claims {
		if err := enc.Encode(&claims[i]); err != nil {
			metrics.ObserveExport("error", 0)
			return 0, fmt.Errorf("encode claim %s: %w", claims[i].ID, err)
		}
	}

	exportID := uuid.NewString()
	key := fmt.Sprintf("%s/%s/%s.jsonl", e.prefix, e.now().UTC().Format("2006-01-02"), exportID)

	objectURL, err := e.uploader.Upload(ctx, key, buf.Bytes(), "application/x-ndjson")
	if err != nil {
		log.Printf("[EXPORT] ❌ Upload of %d claims failed: %v", len(claims), err)
		metrics.ObserveExport("error", 0)
		return 0, err
	}

	record := &models.ClaimExport{
		ID:            exportID,
		ObjectKey:     key,
		ObjectURL:     objectURL,
		ClaimCount:    len(claims),
		LastCreatedAt: claims[len(claims)-1].CreatedAt,
	}
	if err := e.exportLog.Record(ctx, record); err != nil {
		// The object is already uploaded; the next run will re-export this batch.
		metrics.ObserveExport("error", 0)
		return 0, fmt.Errorf("record export %s: %w", key, err)
	}

	log.Printf("[EXPORT] ✅ Exported %d claims to %s (through %s)", len(claims), key, record.LastCreatedAt.Format(time.RFC3339))
	metrics.ObserveExport("ok", len(claims))
	return len(claims), nil
}

// settledOnly keeps the prefix of claims (sorted by created_at) stamped at or before cutoff.
func settledOnly(claims []models.Claim, cutoff time.Time) []models.Claim {
	for i := range claims {
		if claims[i].CreatedAt.After(cutoff) {
			return claims[:i]
		}
	}
	return claims
}

// GormExportLog keeps the export cursor in the claim_exports table.
type GormExportLog struct {
	DB *gorm.DB
}

func NewGormExportLog(db *gorm.DB) *GormExportLog {
	return &GormExportLog{DB: db}
}

func (l *GormExportLog) LastExportedAt(ctx context.Context) (time.Time, error) {
	var last models.ClaimExport
	err := l.DB.WithContext(ctx).Order("last_created_at DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return last.LastCreatedAt, nil
}

func (l *GormExportLog) Record(ctx context.Context, export *models.ClaimExport) error {
	return l.DB.WithContext(ctx).Create(export).Error
}

// MemoryExportLog is the in-process cursor used with the memory claim store.
type MemoryExportLog struct {
	mu      sync.Mutex
	exports []models.ClaimExport
}

func (l *MemoryExportLog) LastExportedAt(context.Context) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.exports) == 0 {
		return time.Time{}, nil
	}
	return l.exports[len(l.exports)-1].LastCreatedAt, nil
}

func (l *MemoryExportLog) Record(_ context.Context, export *models.ClaimExport) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exports = append(l.exports, *export)
	return nil
}

// Exports returns a copy of the recorded exports.
func (l *MemoryExportLog) Exports() []models.ClaimExport {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.ClaimExport(nil), l.exports...)
}
