package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

const (
	msgLeadExists = "Lead with this email already exists"
	// exportLimit caps a single spreadsheet export.
	exportLimit = 10000
)

type LeadInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	Status          string `json:"status" validate:"omitempty,oneof=hot warm cold"`
	Source          string `json:"source" validate:"required"`
	Budget          string `json:"budget" validate:"required"`
	PropertyType    string `json:"property_type" validate:"required"`
	AssignedAgent   string `json:"assigned_agent"`
	AssignedAgentID string `json:"assigned_agent_id"`
	Notes           string `json:"notes"`
}

type LeadPatch struct {
	Name            *string    `json:"name" validate:"omitempty,min=1"`
	Email           *string    `json:"email" validate:"omitempty,email"`
	Phone           *string    `json:"phone"`
	Status          *string    `json:"status" validate:"omitempty,oneof=hot warm cold"`
	Source          *string    `json:"source"`
	Budget          *string    `json:"budget"`
	PropertyType    *string    `json:"property_type"`
	AssignedAgent   *string    `json:"assigned_agent"`
	AssignedAgentID *string    `json:"assigned_agent_id"`
	Notes           *string    `json:"notes"`
	LastContact     *time.Time `json:"last_contact"`
}

func (p LeadPatch) Fields() (bson.M, error) {
	if err := checkInput(p); err != nil {
		return nil, err
	}
	set := bson.M{}
	setString(set, "name", p.Name)
	setString(set, "email", trimmed(p.Email))
	setString(set, "phone", p.Phone)
	setString(set, "status", p.Status)
	setString(set, "source", p.Source)
	setString(set, "budget", p.Budget)
	setString(set, "property_type", p.PropertyType)
	setString(set, "assigned_agent", p.AssignedAgent)
	setString(set, "notes", p.Notes)
	if err := setRef(set, leadOwnerField, "agent", p.AssignedAgentID); err != nil {
		return nil, err
	}
	if p.LastContact != nil {
		set["last_contact"] = p.LastContact.UTC()
	}
	return set, nil
}

func LeadSchema() Schema[entity.Lead] {
	return Schema[entity.Lead]{
		Name:       "Lead",
		OwnerField: leadOwnerField,
		Owner:      (*entity.Lead).Owner,
		Sort:       newestFirst,
		Filters: []Filter{
			{Param: "search", Kind: FilterSearch, Fields: []string{"name", "email", "phone"}},
			{Param: "status", Field: "status", Kind: FilterEqual},
			{Param: "source", Field: "source", Kind: FilterEqual},
			{Param: "agent_id", Field: leadOwnerField, Kind: FilterRef, Label: "agent"},
		},
		Touch: func(now time.Time) bson.M { return bson.M{"updated_at": now} },
	}
}

type LeadUseCase struct {
	*Resource[entity.Lead]
	refs refs
}

func NewLeadUseCase(leads entity.Store[entity.Lead], users entity.Store[entity.User]) *LeadUseCase {
	return &LeadUseCase{
		Resource: NewResource(LeadSchema(), leads),
		refs:     refs{Leads: leads, Users: users},
	}
}

func (uc *LeadUseCase) Create(ctx context.Context, p entity.Principal, in LeadInput) (*entity.Lead, error) {
	if !CanCreate(p) {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	in.Email = strings.TrimSpace(in.Email)
	if err := checkInput(in); err != nil {
		return nil, err
	}

	existing, err := uc.Store.FindOne(ctx, bson.M{"email": in.Email})
	if err != nil {
		return nil, fmt.Errorf("find lead by email: %w", err)
	}
	if existing != nil {
		return nil, entity.Conflict(msgLeadExists)
	}

	agentID, agentName, err := uc.assignee(ctx, p, in.AssignedAgentID, in.AssignedAgent)
	if err != nil {
		return nil, err
	}

	now := uc.Now()
	lead := &entity.Lead{
		ID:              bson.NewObjectID(),
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		Status:          in.Status,
		Source:          in.Source,
		Budget:          in.Budget,
		PropertyType:    in.PropertyType,
		AssignedAgent:   agentName,
		AssignedAgentID: agentID,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if lead.Status == "" {
		lead.Status = entity.LeadCold
	}

	if err := uc.Store.Insert(ctx, lead); err != nil {
		if errors.Is(err, entity.ErrDuplicateKey) {
			return nil, entity.Conflict(msgLeadExists)
		}
		return nil, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

// assignee resolves who a new lead belongs to. Agents always own what they create;
// admins may pick an agent and otherwise get the first agent on file.
func (uc *LeadUseCase) assignee(ctx context.Context, p entity.Principal, rawID, name string) (*bson.ObjectID, string, error) {
	if p.IsAgent() || rawID != "" {
		id, agentName, err := uc.refs.agent(ctx, p, rawID, name)
		if err != nil {
			return nil, "", err
		}
		return &id, agentName, nil
	}

	agent, err := uc.refs.firstAgent(ctx)
	if err != nil {
		return nil, "", err
	}
	if agent == nil {
		return nil, name, nil
	}
	if name == "" {
		name = agent.Name
	}
	return &agent.ID, name, nil
}

func (uc *LeadUseCase) Update(ctx context.Context, p entity.Principal, id string, patch LeadPatch) (*entity.Lead, error) {
	lead, err := uc.UpdateWith(ctx, p, id, patch, func(_ context.Context, _ *entity.Lead, set bson.M) error {
		return keepAgent(p, set, leadOwnerField)
	})
	if errors.Is(err, entity.ErrDuplicateKey) {
		return nil, entity.Conflict(msgLeadExists)
	}
	return lead, err
}

// Export returns every lead the caller can see that matches params, newest first.
func (uc *LeadUseCase) Export(ctx context.Context, p entity.Principal, params map[string]string) ([]entity.Lead, error) {
	return uc.Scan(ctx, p, ListQuery{Params: params}, exportLimit)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
