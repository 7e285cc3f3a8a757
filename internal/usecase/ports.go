package usecase

import (
	"context"
	"iter"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/internal/domain"
)

// MirrorRepository defines storage operations for mirrored objects and runs.
type MirrorRepository interface {
	Upsert(ctx context.Context, obj domain.MirroredObject) (hash string, changed bool, err error)
	BeginRun(ctx context.Context, report domain.SyncReport) error
	FinishRun(ctx context.Context, report domain.SyncReport) error
}

// Source is one modeler resource a run reads from.
type Source interface {
	Resource() string
	Search(ctx context.Context, text string) iter.Seq2[enovia.RawObject, error]
	Fetch(ctx context.Context, ids []string) (enovia.BulkResult[enovia.RawObject], error)
}

// Publisher announces stored changes.
type Publisher interface {
	Publish(ctx context.Context, channel string, event enovia.ChangeEvent) error
}

// Filter decides whether a fetched object is mirrored.
type Filter interface {
	Keep(obj enovia.RawObject) (bool, error)
}
