package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

const msgSaleExists = "Sale opportunity already exists for this lead"

type SaleInput struct {
	LeadID        string `json:"lead_id" validate:"required"`
	LeadName      string `json:"lead_name"`
	Property      string `json:"property" validate:"required"`
	Agent         string `json:"agent"`
	AgentID       string `json:"agent_id"`
	Stage         string `json:"stage" validate:"omitempty,oneof=contacted viewed negotiation closed"`
	Value         string `json:"value" validate:"required,money"`
	Probability   int    `json:"probability" validate:"gte=0,lte=100"`
	ExpectedClose string `json:"expected_close" validate:"required"`
}

type SalePatch struct {
	LeadID        *string    `json:"lead_id"`
	LeadName      *string    `json:"lead_name"`
	Property      *string    `json:"property"`
	Agent         *string    `json:"agent"`
	AgentID       *string    `json:"agent_id"`
	Stage         *string    `json:"stage" validate:"omitempty,oneof=contacted viewed negotiation closed"`
	Value         *string    `json:"value" validate:"omitempty,money"`
	Probability   *int       `json:"probability" validate:"omitempty,gte=0,lte=100"`
	ExpectedClose *string    `json:"expected_close"`
	LastActivity  *time.Time `json:"last_activity"`
}

func (p SalePatch) Fields() (bson.M, error) {
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
	setString(set, "property", p.Property)
	setString(set, "agent", p.Agent)
	setString(set, "stage", p.Stage)
	setString(set, "value", p.Value)
	setString(set, "expected_close", p.ExpectedClose)
	if p.Probability != nil {
		set["probability"] = *p.Probability
	}
	if p.LastActivity != nil {
		set["last_activity"] = p.LastActivity.UTC()
	}
	return set, nil
}

func SaleSchema() Schema[entity.Sale] {
	return Schema[entity.Sale]{
		Name:       "Sale",
		OwnerField: activityOwnerField,
		Owner:      (*entity.Sale).Owner,
		Sort:       newestFirst,
		Filters: []Filter{
			{Param: "stage", Field: "stage", Kind: FilterEqual},
			{Param: "agent", Field: "agent", Kind: FilterContains},
			{Param: "lead_id", Field: "lead_id", Kind: FilterRef, Label: "lead"},
		},
		Touch: func(now time.Time) bson.M { return bson.M{"last_activity": now} },
	}
}

type SaleUseCase struct {
	*Resource[entity.Sale]
	refs refs
}

func NewSaleUseCase(sales entity.Store[entity.Sale], leads entity.Store[entity.Lead], users entity.Store[entity.User]) *SaleUseCase {
	return &SaleUseCase{
		Resource: NewResource(SaleSchema(), sales),
		refs:     refs{Leads: leads, Users: users},
	}
}

// Create opens the single sale opportunity a lead may have.
func (uc *SaleUseCase) Create(ctx context.Context, p entity.Principal, in SaleInput) (*entity.Sale, error) {
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

	existing, err := uc.Store.FindOne(ctx, bson.M{"lead_id": lead.ID})
	if err != nil {
		return nil, fmt.Errorf("find sale for lead: %w", err)
	}
	if existing != nil {
		return nil, entity.Conflict(msgSaleExists)
	}

	agentID, agentName, err := uc.refs.agent(ctx, p, in.AgentID, in.Agent)
	if err != nil {
		return nil, err
	}

	now := uc.Now()
	sale := &entity.Sale{
		ID:            bson.NewObjectID(),
		LeadID:        lead.ID,
		LeadName:      orDefault(in.LeadName, lead.Name),
		Property:      in.Property,
		Agent:         agentName,
		AgentID:       agentID,
		Stage:         orDefault(in.Stage, entity.StageContacted),
		Value:         in.Value,
		Probability:   in.Probability,
		ExpectedClose: in.ExpectedClose,
		CreatedAt:     now,
		LastActivity:  now,
	}
	if err := uc.Store.Insert(ctx, sale); err != nil {
		if errors.Is(err, entity.ErrDuplicateKey) {
			return nil, entity.Conflict(msgSaleExists)
		}
		return nil, fmt.Errorf("insert sale: %w", err)
	}
	return sale, nil
}

func (uc *SaleUseCase) Update(ctx context.Context, p entity.Principal, id string, patch SalePatch) (*entity.Sale, error) {
	sale, err := uc.UpdateWith(ctx, p, id, patch, func(ctx context.Context, _ *entity.Sale, set bson.M) error {
		if err := keepAgent(p, set, activityOwnerField); err != nil {
			return err
		}
		return checkLeadRef(ctx, uc.refs, p, set)
	})
	if errors.Is(err, entity.ErrDuplicateKey) {
		return nil, entity.Conflict(msgSaleExists)
	}
	return sale, err
}
