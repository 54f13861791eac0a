package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

type CallInput struct {
	LeadID   string `json:"lead_id" validate:"required"`
	LeadName string `json:"lead_name"`
	Agent    string `json:"agent"`
	AgentID  string `json:"agent_id"`
	Type     string `json:"type" validate:"required,oneof=inbound outbound"`
	Duration string `json:"duration" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Status   string `json:"status" validate:"required,oneof=completed missed"`
	Notes    string `json:"notes"`
}

type CallPatch struct {
	LeadID   *string `json:"lead_id"`
	LeadName *string `json:"lead_name"`
	Agent    *string `json:"agent"`
	AgentID  *string `json:"agent_id"`
	Type     *string `json:"type" validate:"omitempty,oneof=inbound outbound"`
	Duration *string `json:"duration"`
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Status   *string `json:"status" validate:"omitempty,oneof=completed missed"`
	Notes    *string `json:"notes"`
}

func (p CallPatch) Fields() (bson.M, error) {
	if err := checkInput(p); err != nil {
		return nil, err
	}
	set := bson.M{}
	if err := setRequiredRef(set, "lead_id", "lead", p.LeadID); err != nil {
		return nil, err
	}
	if err := setRequiredRef(set, activityOwnerField, "agent", p.AgentID); err != nil {
		return nil, err
	}
	setString(set, "lead_name", p.LeadName)
	setString(set, "agent", p.Agent)
	setString(set, "type", p.Type)
	setString(set, "duration", p.Duration)
	setString(set, "date", p.Date)
	setString(set, "time", p.Time)
	setString(set, "status", p.Status)
	setString(set, "notes", p.Notes)
	return set, nil
}

func CallSchema() Schema[entity.Call] {
	return Schema[entity.Call]{
		Name:       "Call",
		OwnerField: activityOwnerField,
		Owner:      (*entity.Call).Owner,
		Sort:       newestFirst,
		Filters: []Filter{
			{Param: "lead_id", Field: "lead_id", Kind: FilterRef, Label: "lead"},
			{Param: "agent", Field: "agent", Kind: FilterContains},
			{Param: "status", Field: "status", Kind: FilterEqual},
			{Param: "type", Field: "type", Kind: FilterEqual},
		},
	}
}

type CallUseCase struct {
	*Resource[entity.Call]
	refs refs
}

func NewCallUseCase(calls entity.Store[entity.Call], leads entity.Store[entity.Lead], users entity.Store[entity.User]) *CallUseCase {
	return &CallUseCase{
		Resource: NewResource(CallSchema(), calls),
		refs:     refs{Leads: leads, Users: users},
	}
}

// Create logs a call against a lead and marks the lead as contacted.
func (uc *CallUseCase) Create(ctx context.Context, p entity.Principal, in CallInput) (*entity.Call, error) {
	if !CanCreate(p) {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	lead, err := uc.refs.lead(ctx, p, in.LeadID)
	if err != nil {
		return nil, err
	}
	agentID, agentName, err := uc.refs.agent(ctx, p, in.AgentID, in.Agent)
	if err != nil {
		return nil, err
	}

	call := &entity.Call{
		ID:        bson.NewObjectID(),
		LeadID:    lead.ID,
		LeadName:  orDefault(in.LeadName, lead.Name),
		Agent:     agentName,
		AgentID:   agentID,
		Type:      in.Type,
		Duration:  in.Duration,
		Date:      in.Date,
		Time:      in.Time,
		Status:    in.Status,
		Notes:     in.Notes,
		CreatedAt: uc.Now(),
	}
	if err := uc.Store.Insert(ctx, call); err != nil {
		return nil, fmt.Errorf("insert call: %w", err)
	}

	if _, err := uc.refs.Leads.Update(ctx, bson.M{"_id": lead.ID}, bson.M{
		"last_contact": call.CreatedAt,
		"updated_at":   call.CreatedAt,
	}); err != nil {
		// The call is already stored.
		zerolog.Ctx(ctx).Warn().Err(err).Str("lead_id", entity.FormatID(lead.ID)).Msg("failed to touch lead after call")
	}
	return call, nil
}

func (uc *CallUseCase) Update(ctx context.Context, p entity.Principal, id string, patch CallPatch) (*entity.Call, error) {
	return uc.UpdateWith(ctx, p, id, patch, func(ctx context.Context, _ *entity.Call, set bson.M) error {
		if err := keepAgent(p, set, activityOwnerField); err != nil {
			return err
		}
		return checkLeadRef(ctx, uc.refs, p, set)
	})
}

// checkLeadRef applies the create-time lead rules to a patched lead_id.
func checkLeadRef(ctx context.Context, r refs, p entity.Principal, set bson.M) error {
	id, ok := set["lead_id"].(bson.ObjectID)
	if !ok {
		return nil
	}
	_, err := r.lead(ctx, p, entity.FormatID(id))
	return err
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
