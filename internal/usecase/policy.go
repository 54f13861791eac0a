package usecase

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

const (
	msgAccessDenied    = "Access denied"
	msgNotYourLead     = "Access denied - not your assigned lead"
	msgAdminRequired   = "Admin access required"
	leadOwnerField     = "assigned_agent_id"
	activityOwnerField = "agent_id"
)

// ScopeFilter restricts a collection to what the caller may see.
// Admins and viewers see every record; agents only records they own.
// An empty ownerField means the collection has no owner and is never scoped.
func ScopeFilter(p entity.Principal, ownerField string) bson.M {
	if ownerField == "" || p.Role != entity.RoleAgent {
		return bson.M{}
	}
	return bson.M{ownerField: p.UserID}
}

// CanView must agree with ScopeFilter on the same owner field.
func CanView(p entity.Principal, owner bson.ObjectID, owned bool) bool {
	switch p.Role {
	case entity.RoleAdmin, entity.RoleViewer:
		return true
	case entity.RoleAgent:
		return !owned || (!owner.IsZero() && owner == p.UserID)
	}
	return false
}

// CanMutate allows admins everywhere and agents on records they own. Viewers are read-only.
func CanMutate(p entity.Principal, owner bson.ObjectID, owned bool) bool {
	switch p.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleAgent:
		return owned && !owner.IsZero() && owner == p.UserID
	}
	return false
}

// CanCreate reports whether the caller may create records at all.
func CanCreate(p entity.Principal) bool {
	return p.Role == entity.RoleAdmin || p.Role == entity.RoleAgent
}

// CanDelete is stricter than CanMutate: ownership is not enough.
func CanDelete(p entity.Principal) bool {
	return p.Role == entity.RoleAdmin
}

// and intersects two filters. Overlapping keys are combined with $and so neither side widens the other.
func and(a, b bson.M) bson.M {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := bson.M{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if _, clash := out[k]; clash {
			return bson.M{"$and": bson.A{a, b}}
		}
		out[k] = v
	}
	return out
}
