package usecase

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type FilterKind int

const (
	FilterEqual    FilterKind = iota // exact match
	FilterContains                   // case-insensitive substring
	FilterRef                        // identifier, decoded before use
	FilterSearch                     // case-insensitive substring across Fields
)

// Filter allow-lists one query parameter for a collection.
type Filter struct {
	Param  string
	Field  string
	Kind   FilterKind
	Fields []string
	Label  string // entity name used in "Invalid <label> ID"
}

// Schema describes how a collection is scoped, filtered and ordered.
type Schema[T any] struct {
	Name       string // display name, e.g. "Lead"
	OwnerField string // bson field holding the owning user id; "" for unowned collections
	Owner      func(*T) bson.ObjectID
	Sort       bson.D
	Filters    []Filter
	// Touch returns the timestamp fields to set alongside a non-empty update.
	Touch func(now time.Time) bson.M
}

type Pager struct {
	Page  int
	Limit int
}

func (p Pager) Validate() error {
	if p.Page < 1 {
		return entity.Validation("page must be greater than or equal to 1")
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return entity.Validation(fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	}
	// Skip must stay representable as a non-negative int64.
	if int64(p.Page-1) > math.MaxInt64/int64(p.Limit) {
		return entity.Validation("page is out of range")
	}
	return nil
}

func (p Pager) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

type ListQuery struct {
	Pager
	Params map[string]string
	// Base holds constraints imposed by the use case, not the caller.
	Base bson.M
}

type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Pages int
	Limit int
}

func pageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Patch is a partial update. Fields returns only the supplied fields, ready for $set.
type Patch interface {
	Fields() (bson.M, error)
}

// Resource implements list/get/update/delete for one collection under the access policy.
type Resource[T any] struct {
	Schema Schema[T]
	Store  entity.Store[T]
	Now    func() time.Time
}

func NewResource[T any](schema Schema[T], store entity.Store[T]) *Resource[T] {
	return &Resource[T]{Schema: schema, Store: store, Now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func (r *Resource[T]) label() string {
	return strings.ToLower(r.Schema.Name)
}

func (r *Resource[T]) notFound() error {
	return entity.NotFound(r.Schema.Name + " not found")
}

func (r *Resource[T]) owner(doc *T) (bson.ObjectID, bool) {
	if r.Schema.Owner == nil {
		return bson.NilObjectID, false
	}
	return r.Schema.Owner(doc), true
}

func (r *Resource[T]) List(ctx context.Context, p entity.Principal, q ListQuery) (*Page[T], error) {
	if err := q.Pager.Validate(); err != nil {
		return nil, err
	}
	filter, err := r.filter(p, q)
	if err != nil {
		return nil, err
	}

	total, err := r.Store.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", r.label(), err)
	}
	items, err := r.Store.Find(ctx, filter, entity.FindOptions{
		Sort:  r.Schema.Sort,
		Skip:  q.Skip(),
		Limit: int64(q.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.label(), err)
	}
	if items == nil {
		items = []T{}
	}

	return &Page[T]{
		Items: items,
		Total: total,
		Page:  q.Page,
		Pages: pageCount(total, q.Limit),
		Limit: q.Limit,
	}, nil
}

// Scan returns up to max scoped and filtered records without paging.
func (r *Resource[T]) Scan(ctx context.Context, p entity.Principal, q ListQuery, max int64) ([]T, error) {
	filter, err := r.filter(p, q)
	if err != nil {
		return nil, err
	}
	items, err := r.Store.Find(ctx, filter, entity.FindOptions{Sort: r.Schema.Sort, Limit: max})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.label(), err)
	}
	return items, nil
}

func (r *Resource[T]) Get(ctx context.Context, p entity.Principal, id string) (*T, error) {
	oid, err := entity.ParseRef(r.label(), id)
	if err != nil {
		return nil, err
	}
	doc, err := r.Lookup(ctx, oid)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, r.notFound()
	}
	owner, owned := r.owner(doc)
	if !CanView(p, owner, owned) {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	return doc, nil
}

// Lookup fetches by id without any policy check. It returns (nil, nil) when absent.
func (r *Resource[T]) Lookup(ctx context.Context, id bson.ObjectID) (*T, error) {
	doc, err := r.Store.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", r.label(), entity.FormatID(id), err)
	}
	return doc, nil
}

func (r *Resource[T]) Update(ctx context.Context, p entity.Principal, id string, patch Patch) (*T, error) {
	return r.UpdateWith(ctx, p, id, patch, nil)
}

// apply writes set (plus the schema's touch fields) and re-reads the document.
// An empty set writes nothing and returns the existing document.
func (r *Resource[T]) apply(ctx context.Context, id bson.ObjectID, existing *T, set bson.M) (*T, error) {
	if len(set) == 0 {
		return existing, nil
	}
	if r.Schema.Touch != nil {
		for k, v := range r.Schema.Touch(r.Now()) {
			if _, ok := set[k]; !ok {
				set[k] = v
			}
		}
	}
	if _, err := r.Store.Update(ctx, bson.M{"_id": id}, set); err != nil {
		return nil, fmt.Errorf("update %s %s: %w", r.label(), entity.FormatID(id), err)
	}

	updated, err := r.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, r.notFound()
	}
	return updated, nil
}

func (r *Resource[T]) Delete(ctx context.Context, p entity.Principal, id string) error {
	if !CanDelete(p) {
		return entity.Forbidden(msgAdminRequired)
	}
	oid, err := entity.ParseRef(r.label(), id)
	if err != nil {
		return err
	}
	existing, err := r.Lookup(ctx, oid)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.notFound()
	}
	if _, err := r.Store.Delete(ctx, oid); err != nil {
		return fmt.Errorf("delete %s %s: %w", r.label(), id, err)
	}
	return nil
}

// filter builds the caller filter from allow-listed params and intersects it with the scope.
func (r *Resource[T]) filter(p entity.Principal, q ListQuery) (bson.M, error) {
	f := bson.M{}
	for k, v := range q.Base {
		f[k] = v
	}
	for _, spec := range r.Schema.Filters {
		v := strings.TrimSpace(q.Params[spec.Param])
		if v == "" {
			continue
		}
		switch spec.Kind {
		case FilterEqual:
			f[spec.Field] = v
		case FilterContains:
			f[spec.Field] = containsRegex(v)
		case FilterRef:
			id, err := entity.ParseRef(spec.Label, v)
			if err != nil {
				return nil, err
			}
			f[spec.Field] = id
		case FilterSearch:
			or := bson.A{}
			for _, field := range spec.Fields {
				or = append(or, bson.M{field: containsRegex(v)})
			}
			f["$or"] = or
		}
	}
	return and(ScopeFilter(p, r.Schema.OwnerField), f), nil
}

func containsRegex(v string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}
