package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

type EmailInput struct {
	LeadID     string `json:"lead_id"`
	LeadName   string `json:"lead_name"`
	ToEmail    string `json:"to_email" validate:"required,email"`
	FromEmail  string `json:"from_email" validate:"required,email"`
	Subject    string `json:"subject" validate:"required"`
	Content    string `json:"content" validate:"required"`
	EmailType  string `json:"email_type" validate:"omitempty,oneof=manual automated template"`
	TemplateID string `json:"template_id"`
	Status     string `json:"status" validate:"omitempty,oneof=draft sent delivered failed read"`
	Direction  string `json:"direction" validate:"omitempty,oneof=inbound outbound"`
	AgentID    string `json:"agent_id"`
	AgentName  string `json:"agent_name"`
}

type EmailPatch struct {
	LeadID     *string `json:"lead_id"`
	LeadName   *string `json:"lead_name"`
	ToEmail    *string `json:"to_email" validate:"omitempty,email"`
	FromEmail  *string `json:"from_email" validate:"omitempty,email"`
	Subject    *string `json:"subject"`
	Content    *string `json:"content"`
	EmailType  *string `json:"email_type" validate:"omitempty,oneof=manual automated template"`
	TemplateID *string `json:"template_id"`
	Status     *string `json:"status" validate:"omitempty,oneof=draft sent delivered failed read"`
	Direction  *string `json:"direction" validate:"omitempty,oneof=inbound outbound"`
	AgentID    *string `json:"agent_id"`
	AgentName  *string `json:"agent_name"`
}

func (p EmailPatch) Fields() (bson.M, error) {
	if err := checkInput(p); err != nil {
		return nil, err
	}
	set := bson.M{}
	if err := setRef(set, "lead_id", "lead", p.LeadID); err != nil {
		return nil, err
	}
	if err := setRef(set, "template_id", "template", p.TemplateID); err != nil {
		return nil, err
	}
	if err := setRequiredRef(set, activityOwnerField, "agent", p.AgentID); err != nil {
		return nil, err
	}
	setString(set, "lead_name", p.LeadName)
	setString(set, "to_email", p.ToEmail)
	setString(set, "from_email", p.FromEmail)
	setString(set, "subject", p.Subject)
	setString(set, "content", p.Content)
	setString(set, "email_type", p.EmailType)
	setString(set, "status", p.Status)
	setString(set, "direction", p.Direction)
	setString(set, "agent_name", p.AgentName)
	return set, nil
}

func EmailSchema() Schema[entity.Email] {
	return Schema[entity.Email]{
		Name:       "Email",
		OwnerField: activityOwnerField,
		Owner:      (*entity.Email).Owner,
		Sort:       newestFirst,
		Filters: []Filter{
			{Param: "lead_id", Field: "lead_id", Kind: FilterRef, Label: "lead"},
			{Param: "status", Field: "status", Kind: FilterEqual},
			{Param: "direction", Field: "direction", Kind: FilterEqual},
			{Param: "email_type", Field: "email_type", Kind: FilterEqual},
		},
		Touch: func(now time.Time) bson.M { return bson.M{"updated_at": now} },
	}
}

type EmailUseCase struct {
	*Resource[entity.Email]
	refs           refs
	Templates      entity.Store[entity.EmailTemplate]
	Viewings       entity.Store[entity.Viewing]
	Dispatcher     Dispatcher
	DispatchErrors DispatchRecorder
	Delivery       *EmailDelivery
	CompanyName    string
}

func NewEmailUseCase(
	emails entity.Store[entity.Email],
	templates entity.Store[entity.EmailTemplate],
	viewings entity.Store[entity.Viewing],
	leads entity.Store[entity.Lead],
	users entity.Store[entity.User],
	dispatcher Dispatcher,
	delivery *EmailDelivery,
	companyName string,
) *EmailUseCase {
	return &EmailUseCase{
		Resource:       NewResource(EmailSchema(), emails),
		refs:           refs{Leads: leads, Users: users},
		Templates:      templates,
		Viewings:       viewings,
		Dispatcher:     dispatcher,
		DispatchErrors: noopRecorder{},
		Delivery:       delivery,
		CompanyName:    companyName,
	}
}

func (uc *EmailUseCase) Create(ctx context.Context, p entity.Principal, in EmailInput) (*entity.Email, error) {
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
	templateID, err := entity.ParseOptionalRef("template", in.TemplateID)
	if err != nil {
		return nil, err
	}
	agentID, agentName, err := uc.refs.agent(ctx, p, in.AgentID, in.AgentName)
	if err != nil {
		return nil, err
	}

	now := uc.Now()
	email := &entity.Email{
		ID:         bson.NewObjectID(),
		LeadName:   in.LeadName,
		ToEmail:    in.ToEmail,
		FromEmail:  in.FromEmail,
		Subject:    in.Subject,
		Content:    in.Content,
		EmailType:  orDefault(in.EmailType, "manual"),
		TemplateID: templateID,
		Status:     orDefault(in.Status, entity.EmailDraft),
		Direction:  orDefault(in.Direction, "outbound"),
		AgentID:    agentID,
		AgentName:  agentName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if lead != nil {
		email.LeadID = &lead.ID
		email.LeadName = orDefault(in.LeadName, lead.Name)
	}
	if email.Status == entity.EmailSent {
		email.SentAt = &now
	}

	if err := uc.Store.Insert(ctx, email); err != nil {
		return nil, fmt.Errorf("insert email: %w", err)
	}
	if email.Status == entity.EmailSent {
		uc.dispatch(ctx, email.ID)
	}
	return email, nil
}

// Update moving an email into "sent" stamps sent_at and queues it for delivery.
// An email in "sent" keeps that status until the delivery worker records the outcome.
func (uc *EmailUseCase) Update(ctx context.Context, p entity.Principal, id string, patch EmailPatch) (*entity.Email, error) {
	var queue bool
	email, err := uc.UpdateWith(ctx, p, id, patch, func(ctx context.Context, existing *entity.Email, set bson.M) error {
		if err := keepAgent(p, set, activityOwnerField); err != nil {
			return err
		}
		if err := checkLeadRef(ctx, uc.refs, p, set); err != nil {
			return err
		}
		status, changing := set["status"]
		if changing && existing.Status == entity.EmailSent && status != entity.EmailSent {
			return entity.Validation("Email is being delivered; its status cannot change until delivery finishes")
		}
		if status == entity.EmailSent && existing.Status != entity.EmailSent {
			set["sent_at"] = uc.Now()
			queue = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if queue {
		uc.dispatch(ctx, email.ID)
	}
	return email, nil
}

// dispatch queues delivery. If the queue refuses the task the email is failed
// immediately instead of waiting in "sent".
func (uc *EmailUseCase) dispatch(ctx context.Context, id bson.ObjectID) {
	err := uc.Dispatcher.Dispatch(ctx, id)
	if err == nil {
		return
	}
	uc.DispatchErrors.DispatchFailed()
	log := zerolog.Ctx(ctx)
	log.Error().Err(err).Str("email_id", entity.FormatID(id)).Msg("failed to queue email delivery")
	if uc.Delivery == nil {
		return
	}
	if err := uc.Delivery.MarkFailed(ctx, id); err != nil {
		log.Error().Err(err).Str("email_id", entity.FormatID(id)).Msg("failed to mark email as failed")
	}
}

type SendTemplateInput struct {
	TemplateID string `json:"template_id" validate:"required"`
	LeadID     string `json:"lead_id" validate:"required"`
}

// SendTemplate renders a template for a lead, stores the email as sent and queues it.
func (uc *EmailUseCase) SendTemplate(ctx context.Context, p entity.Principal, in SendTemplateInput) (*entity.Email, error) {
	if !CanCreate(p) {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	tid, err := entity.ParseRef("template", in.TemplateID)
	if err != nil {
		return nil, err
	}
	tmpl, err := uc.Templates.FindOne(ctx, bson.M{"_id": tid})
	if err != nil {
		return nil, fmt.Errorf("find template %s: %w", in.TemplateID, err)
	}
	if tmpl == nil {
		return nil, entity.NotFound("Template not found")
	}
	if !tmpl.IsActive {
		return nil, entity.Validation("Template is not active")
	}
	return uc.sendTemplate(ctx, p, tmpl, in.LeadID, nil)
}

// TriggerNewLead sends the active welcome template to a lead.
func (uc *EmailUseCase) TriggerNewLead(ctx context.Context, p entity.Principal, leadID string) (*entity.Email, error) {
	if !CanCreate(p) {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	tmpl, err := uc.Templates.FindOne(ctx, bson.M{"template_type": TemplateWelcome, "is_active": true})
	if err != nil {
		return nil, fmt.Errorf("find welcome template: %w", err)
	}
	if tmpl == nil {
		return nil, entity.NotFound("No welcome template found")
	}
	return uc.sendTemplate(ctx, p, tmpl, leadID, nil)
}

// TriggerViewingReminder sends the active viewing reminder template to the lead
// booked on a viewing. {date} and {time} come from the viewing.
func (uc *EmailUseCase) TriggerViewingReminder(ctx context.Context, p entity.Principal, viewingID string) (*entity.Email, error) {
	if !CanCreate(p) {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	id, err := entity.ParseRef("viewing", viewingID)
	if err != nil {
		return nil, err
	}
	viewing, err := uc.Viewings.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("find viewing %s: %w", viewingID, err)
	}
	if viewing == nil {
		return nil, entity.NotFound("Viewing not found")
	}
	if !CanMutate(p, viewing.Owner(), true) {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	if viewing.LeadID == nil {
		return nil, entity.Validation("Viewing has no lead to remind")
	}

	tmpl, err := uc.Templates.FindOne(ctx, bson.M{"template_type": TemplateViewingReminder, "is_active": true})
	if err != nil {
		return nil, fmt.Errorf("find viewing reminder template: %w", err)
	}
	if tmpl == nil {
		return nil, entity.NotFound("No viewing reminder template found")
	}
	return uc.sendTemplate(ctx, p, tmpl, entity.FormatID(*viewing.LeadID), viewing)
}

func (uc *EmailUseCase) sendTemplate(ctx context.Context, p entity.Principal, tmpl *entity.EmailTemplate, leadID string, viewing *entity.Viewing) (*entity.Email, error) {
	lead, err := uc.refs.lead(ctx, p, leadID)
	if err != nil {
		return nil, err
	}

	now := uc.Now()
	out := Render(tmpl, RenderContext{
		Lead:        lead,
		Viewing:     viewing,
		AgentName:   p.Name,
		AgentEmail:  p.Email,
		CompanyName: uc.CompanyName,
		Now:         now,
	})
	email := &entity.Email{
		ID:         bson.NewObjectID(),
		LeadID:     &lead.ID,
		LeadName:   lead.Name,
		ToEmail:    lead.Email,
		FromEmail:  p.Email,
		Subject:    out.Subject,
		Content:    out.Body,
		EmailType:  "template",
		TemplateID: &tmpl.ID,
		Status:     entity.EmailSent,
		Direction:  "outbound",
		AgentID:    p.UserID,
		AgentName:  p.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
		SentAt:     &now,
	}
	if err := uc.Store.Insert(ctx, email); err != nil {
		return nil, fmt.Errorf("insert template email: %w", err)
	}
	uc.dispatch(ctx, email.ID)
	return email, nil
}
