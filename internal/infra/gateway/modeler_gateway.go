package gateway

import (
	"context"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/dsdrw"
	"github.com/totegamma/enovia-go/dseng"
	"github.com/totegamma/enovia-go/dsmfg"
	"github.com/totegamma/enovia-go/dsxcad"
	"github.com/totegamma/enovia-go/internal/usecase"
	"github.com/totegamma/enovia-go/modeler"
)

// Kind binds a short name to a modeler resource and the masks a tool reads it
// with: a light one to enumerate, a rich one to fetch.
type Kind struct {
	Name       string
	Definition modeler.Definition
	SearchMask modeler.Mask
	FetchMask  modeler.Mask
}

var kinds = []Kind{
	{Name: "engitem", Definition: dseng.Definition, SearchMask: dseng.MaskEngItemDefault, FetchMask: dseng.MaskEngItemDetails},
	{Name: "mfgitem", Definition: dsmfg.Definition, SearchMask: dsmfg.MaskMfgItemDefault, FetchMask: dsmfg.MaskMfgItemDetails},
	{Name: "drawing", Definition: dsdrw.Definition, SearchMask: dsdrw.MaskDrawingDefault, FetchMask: dsdrw.MaskDrawingDetails},
	{Name: "part", Definition: dsxcad.PartDefinition, SearchMask: dsxcad.MaskPartDefault, FetchMask: dsxcad.MaskPartDetails},
	{Name: "product", Definition: dsxcad.ProductDefinition, SearchMask: dsxcad.MaskProductDefault, FetchMask: dsxcad.MaskProductDetails},
	{Name: "representation", Definition: dsxcad.RepresentationDefinition, SearchMask: dsxcad.MaskRepresentationDefault, FetchMask: dsxcad.MaskRepresentationDetails},
	{Name: "template", Definition: dsxcad.TemplateDefinition, SearchMask: dsxcad.MaskTemplateDefault, FetchMask: dsxcad.MaskTemplateDefault},
}

var ErrUnknownKind = errors.New("unknown kind")

// LookupKind accepts a short name or the modeler type, e.g. "engitem" or
// "dseng:EngItem".
func LookupKind(name string) (Kind, error) {
	for _, k := range kinds {
		if strings.EqualFold(k.Name, name) || k.Definition.Type == name {
			return k, nil
		}
	}
	return Kind{}, errors.Wrapf(ErrUnknownKind, "%q (known: %s)", name, strings.Join(KindNames(), ", "))
}

func KindNames() []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.Name
	}
	return names
}

type ModelerGateway struct {
	client   *client.Client
	pageSize int
	cache    *cache.Cache
}

func NewModelerGateway(cl *client.Client, pageSize int) *ModelerGateway {
	return &ModelerGateway{
		client:   cl,
		pageSize: pageSize,
		cache:    cache.New(time.Minute, 5*time.Minute),
	}
}

// Source opens kind for the mirror.
func (g *ModelerGateway) Source(name string) (*Source, error) {
	k, err := LookupKind(name)
	if err != nil {
		return nil, err
	}
	r := modeler.NewResource(g.client, k.Definition).WithPageSize(g.pageSize)
	search, err := r.View(k.SearchMask)
	if err != nil {
		return nil, err
	}
	fetch, err := r.View(k.FetchMask)
	if err != nil {
		return nil, err
	}
	return &Source{kind: k, search: search, fetch: fetch}, nil
}

// Get reads one object with the fetch mask of kind. Answers are kept for a
// minute; pass fresh to go to the server anyway.
func (g *ModelerGateway) Get(ctx context.Context, name, id string, fresh bool) (enovia.RawObject, error) {
	src, err := g.Source(name)
	if err != nil {
		return enovia.RawObject{}, err
	}
	key := src.kind.Definition.Type + "/" + id
	if !fresh {
		if cached, found := g.cache.Get(key); found {
			return cached.(enovia.RawObject), nil
		}
	}
	obj, err := src.fetch.Get(ctx, id)
	if err != nil {
		return enovia.RawObject{}, err
	}
	g.cache.SetDefault(key, obj)
	return obj, nil
}

// SearchPage runs one search window of kind with its search mask.
func (g *ModelerGateway) SearchPage(ctx context.Context, name string, q modeler.Query) ([]enovia.RawObject, error) {
	src, err := g.Source(name)
	if err != nil {
		return nil, err
	}
	return src.search.SearchPage(ctx, q)
}

// Source enumerates one resource and fetches it in batches.
type Source struct {
	kind   Kind
	search modeler.View
	fetch  modeler.View
}

var _ usecase.Source = (*Source)(nil)

func (s *Source) Kind() Kind        { return s.kind }
func (s *Source) Resource() string { return s.kind.Definition.Type }

func (s *Source) Search(ctx context.Context, text string) iter.Seq2[enovia.RawObject, error] {
	return s.search.Search(ctx, modeler.Query{Text: text})
}

func (s *Source) Fetch(ctx context.Context, ids []string) (enovia.BulkResult[enovia.RawObject], error) {
	return s.fetch.BulkFetch(ctx, slices.Clone(ids))
}
