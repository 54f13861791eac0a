package usecase

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

// refs resolves the lead and agent a new record points at.
type refs struct {
	Leads entity.Store[entity.Lead]
	Users entity.Store[entity.User]
}

// lead loads the referenced lead and checks an agent caller is assigned to it.
func (r refs) lead(ctx context.Context, p entity.Principal, raw string) (*entity.Lead, error) {
	id, err := entity.ParseRef("lead", raw)
	if err != nil {
		return nil, err
	}
	lead, err := r.Leads.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("find lead %s: %w", raw, err)
	}
	if lead == nil {
		return nil, entity.NotFound("Lead not found")
	}
	if p.IsAgent() && lead.Owner() != p.UserID {
		return nil, entity.Forbidden(msgNotYourLead)
	}
	return lead, nil
}

// optionalLead is lead for references that may be omitted.
func (r refs) optionalLead(ctx context.Context, p entity.Principal, raw string) (*entity.Lead, error) {
	if raw == "" {
		return nil, nil
	}
	return r.lead(ctx, p, raw)
}

// agent picks the owning agent for a new record. It defaults to the caller;
// only admins may attribute a record to somebody else.
func (r refs) agent(ctx context.Context, p entity.Principal, rawID, name string) (bson.ObjectID, string, error) {
	id, err := entity.ParseOptionalRef("agent", rawID)
	if err != nil {
		return bson.NilObjectID, "", err
	}
	if id == nil || *id == p.UserID {
		if name == "" {
			name = p.Name
		}
		return p.UserID, name, nil
	}
	if !p.IsAdmin() {
		return bson.NilObjectID, "", entity.Forbidden(msgAccessDenied)
	}

	user, err := r.Users.FindOne(ctx, bson.M{"_id": *id})
	if err != nil {
		return bson.NilObjectID, "", fmt.Errorf("find agent %s: %w", rawID, err)
	}
	if user == nil {
		return bson.NilObjectID, "", entity.NotFound("Agent not found")
	}
	if name == "" {
		name = user.Name
	}
	return user.ID, name, nil
}

// firstAgent returns the oldest agent account, or nil when there is none.
func (r refs) firstAgent(ctx context.Context) (*entity.User, error) {
	agents, err := r.Users.Find(ctx, bson.M{"role": entity.RoleAgent}, entity.FindOptions{
		Sort:  bson.D{{Key: "created_at", Value: 1}},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("find first agent: %w", err)
	}
	if len(agents) == 0 {
		return nil, nil
	}
	return &agents[0], nil
}
