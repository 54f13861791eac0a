package usecase

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

func setString(set bson.M, field string, v *string) {
	if v != nil {
		set[field] = *v
	}
}

// setRef decodes an id-valued patch field. An empty string clears the reference.
func setRef(set bson.M, field, label string, v *string) error {
	if v == nil {
		return nil
	}
	id, err := entity.ParseOptionalRef(label, *v)
	if err != nil {
		return err
	}
	if id == nil {
		set[field] = nil
		return nil
	}
	set[field] = *id
	return nil
}

// setRequiredRef is setRef for references that cannot be cleared.
func setRequiredRef(set bson.M, field, label string, v *string) error {
	if v == nil {
		return nil
	}
	id, err := entity.ParseRef(label, *v)
	if err != nil {
		return err
	}
	set[field] = id
	return nil
}

// UpdateHook runs after the ownership check and may reject the update or add fields to set.
type UpdateHook[T any] func(ctx context.Context, existing *T, set bson.M) error

// UpdateWith is Update with a hook between the policy check and the write.
func (r *Resource[T]) UpdateWith(ctx context.Context, p entity.Principal, id string, patch Patch, hook UpdateHook[T]) (*T, error) {
	oid, err := entity.ParseRef(r.label(), id)
	if err != nil {
		return nil, err
	}
	set, err := patch.Fields()
	if err != nil {
		return nil, err
	}

	existing, err := r.Lookup(ctx, oid)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, r.notFound()
	}
	owner, owned := r.owner(existing)
	if !CanMutate(p, owner, owned) {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	if hook != nil && len(set) > 0 {
		if err := hook(ctx, existing, set); err != nil {
			return nil, err
		}
	}

	return r.apply(ctx, oid, existing, set)
}

// keepAgent stops agents from handing a record to someone else.
func keepAgent(p entity.Principal, set bson.M, field string) error {
	if !p.IsAgent() {
		return nil
	}
	v, ok := set[field]
	if !ok {
		return nil
	}
	if id, isID := v.(bson.ObjectID); isID && id == p.UserID {
		return nil
	}
	return entity.Forbidden(msgAccessDenied)
}
