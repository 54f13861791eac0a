package usecase

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

type ViewingInput struct {
	Property string `json:"property" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
	LeadName string `json:"lead_name"`
	LeadID   string `json:"lead_id"`
	Agent    string `json:"agent"`
	AgentID  string `json:"agent_id"`
	Status   string `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	Price    string `json:"price" validate:"required"`
	Type     string `json:"type" validate:"required"`
}

type ViewingPatch struct {
	Property *string `json:"property"`
	Address  *string `json:"address"`
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	LeadName *string `json:"lead_name"`
	LeadID   *string `json:"lead_id"`
	Agent    *string `json:"agent"`
	AgentID  *string `json:"agent_id"`
	Status   *string `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	Price    *string `json:"price"`
	Type     *string `json:"type"`
}

func (p ViewingPatch) Fields() (bson.M, error) {
	if err := checkInput(p); err != nil {
		return nil, err
	}
	set := bson.M{}
	if err := setRef(set, "lead_id", "lead", p.LeadID); err != nil {
		return nil, err
	}
	if err := setRequiredRef(set, activityOwnerField, "agent", p.AgentID); err != nil {
		return nil, err
	}
	setString(set, "property", p.Property)
	setString(set, "address", p.Address)
	setString(set, "date", p.Date)
	setString(set, "time", p.Time)
	setString(set, "lead_name", p.LeadName)
	setString(set, "agent", p.Agent)
	setString(set, "status", p.Status)
	setString(set, "price", p.Price)
	setString(set, "type", p.Type)
	return set, nil
}

func ViewingSchema() Schema[entity.Viewing] {
	return Schema[entity.Viewing]{
		Name:       "Viewing",
		OwnerField: activityOwnerField,
		Owner:      (*entity.Viewing).Owner,
		Sort:       bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}},
		Filters: []Filter{
			{Param: "date", Field: "date", Kind: FilterEqual},
			{Param: "status", Field: "status", Kind: FilterEqual},
			{Param: "agent", Field: "agent", Kind: FilterContains},
			{Param: "lead_id", Field: "lead_id", Kind: FilterRef, Label: "lead"},
		},
	}
}

type ViewingUseCase struct {
	*Resource[entity.Viewing]
	refs refs
}

func NewViewingUseCase(viewings entity.Store[entity.Viewing], leads entity.Store[entity.Lead], users entity.Store[entity.User]) *ViewingUseCase {
	return &ViewingUseCase{
		Resource: NewResource(ViewingSchema(), viewings),
		refs:     refs{Leads: leads, Users: users},
	}
}

func (uc *ViewingUseCase) Create(ctx context.Context, p entity.Principal, in ViewingInput) (*entity.Viewing, error) {
	if !CanCreate(p) {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	lead, err := uc.refs.optionalLead(ctx, p, in.LeadID)
	if err != nil {
		return nil, err
	}
	if lead == nil && in.LeadName == "" {
		return nil, entity.Validation(ValidationError{Field: "lead_name", Message: "is required"}.Error())
	}
	agentID, agentName, err := uc.refs.agent(ctx, p, in.AgentID, in.Agent)
	if err != nil {
		return nil, err
	}

	viewing := &entity.Viewing{
		ID:        bson.NewObjectID(),
		Property:  in.Property,
		Address:   in.Address,
		Date:      in.Date,
		Time:      in.Time,
		LeadName:  in.LeadName,
		Agent:     agentName,
		AgentID:   agentID,
		Status:    orDefault(in.Status, entity.ViewingScheduled),
		Price:     in.Price,
		Type:      in.Type,
		CreatedAt: uc.Now(),
	}
	if lead != nil {
		viewing.LeadID = &lead.ID
		viewing.LeadName = orDefault(in.LeadName, lead.Name)
	}

	if err := uc.Store.Insert(ctx, viewing); err != nil {
		return nil, fmt.Errorf("insert viewing: %w", err)
	}
	return viewing, nil
}

func (uc *ViewingUseCase) Update(ctx context.Context, p entity.Principal, id string, patch ViewingPatch) (*entity.Viewing, error) {
	return uc.UpdateWith(ctx, p, id, patch, func(ctx context.Context, _ *entity.Viewing, set bson.M) error {
		if err := keepAgent(p, set, activityOwnerField); err != nil {
			return err
		}
		return checkLeadRef(ctx, uc.refs, p, set)
	})
}
