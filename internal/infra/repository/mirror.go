package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/internal/domain"
	"github.com/totegamma/enovia-go/internal/infra/database/models"
)

type MirrorRepository struct {
	db *gorm.DB
}

func NewMirrorRepository(db *gorm.DB) *MirrorRepository {
	return &MirrorRepository{db: db}
}

// Canonical re-encodes a JSON payload with sorted keys and no insignificant
// whitespace, so equal objects hash equally whatever order the server used.
func Canonical(payload []byte) ([]byte, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "payload is not json")
	}
	return json.Marshal(v)
}

func digest(payload []byte) ([]byte, string, error) {
	canonical, err := Canonical(payload)
	if err != nil {
		return nil, "", err
	}
	return canonical, strconv.FormatUint(xxh3.Hash(canonical), 16), nil
}

// Upsert stores obj unless the stored row already has the same payload hash.
// It returns the hash and whether the row was written.
func (r *MirrorRepository) Upsert(ctx context.Context, obj domain.MirroredObject) (string, bool, error) {
	canonical, hash, err := digest(obj.Payload)
	if err != nil {
		return "", false, err
	}

	changed := false
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.MirrorObject
		err := lockHash(tx, obj.Resource, obj.ID, &existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && existing.Hash == hash {
			return nil
		}

		row := models.MirrorObject{
			Resource: obj.Resource,
			ID:       obj.ID,
			Type:     obj.Type,
			Title:    obj.Title,
			State:    obj.State,
			Revision: obj.Revision,
			Cestamp:  obj.Cestamp,
			Hash:     hash,
			Payload:  string(canonical),
			Modified: obj.Modified,
			SyncedAt: obj.SyncedAt,
		}
		if err := upsertRow(tx, &row).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to upsert %s/%s", obj.Resource, obj.ID)
	}
	return hash, changed, nil
}

// lockHash reads the stored hash of one row and holds it until the transaction ends.
func lockHash(tx *gorm.DB, resource, id string, dest *models.MirrorObject) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("hash").
		Where("resource = ? AND id = ?", resource, id).
		Take(dest)
}

func upsertRow(tx *gorm.DB, row *models.MirrorObject) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "resource"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type", "title", "state", "revision", "cestamp", "hash", "payload", "modified", "synced_at",
		}),
	}).Create(row)
}

func (r *MirrorRepository) Get(ctx context.Context, resource, id string) (domain.MirroredObject, error) {
	var row models.MirrorObject
	err := r.db.WithContext(ctx).
		Where("resource = ? AND id = ?", resource, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.MirroredObject{}, enovia.NotFoundError{Resource: resource, ID: id}
	}
	if err != nil {
		return domain.MirroredObject{}, err
	}
	return toDomain(row), nil
}

func (r *MirrorRepository) List(ctx context.Context, resource string, limit int) ([]domain.MirroredObject, error) {
	var rows []models.MirrorObject
	q := r.db.WithContext(ctx).Where("resource = ?", resource).Order("synced_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.MirroredObject, len(rows))
	for i, row := range rows {
		result[i] = toDomain(row)
	}
	return result, nil
}

func toDomain(row models.MirrorObject) domain.MirroredObject {
	return domain.MirroredObject{
		Resource: row.Resource,
		ID:       row.ID,
		Type:     row.Type,
		Title:    row.Title,
		State:    row.State,
		Revision: row.Revision,
		Cestamp:  row.Cestamp,
		Modified: row.Modified,
		Payload:  json.RawMessage(row.Payload),
		Hash:     row.Hash,
		SyncedAt: row.SyncedAt,
	}
}

func (r *MirrorRepository) BeginRun(ctx context.Context, report domain.SyncReport) error {
	run := models.SyncRun{
		ID:        report.RunID,
		Resource:  report.Resource,
		Text:      report.Text,
		Status:    string(domain.RunStatusRunning),
		StartedAt: report.Started,
	}
	return r.db.WithContext(ctx).Create(&run).Error
}

func (r *MirrorRepository) FinishRun(ctx context.Context, report domain.SyncReport) error {
	finished := report.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	return r.db.WithContext(ctx).
		Model(&models.SyncRun{}).
		Where("id = ?", report.RunID).
		Updates(map[string]any{
			"status":      string(report.Status),
			"seen":        report.Seen,
			"stored":      report.Stored,
			"unchanged":   report.Unchanged,
			"skipped":     report.Skipped,
			"failed":      pq.StringArray(report.Failed),
			"error":       report.Error,
			"finished_at": finished,
		}).Error
}
