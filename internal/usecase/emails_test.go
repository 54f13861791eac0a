package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

type emailFixture struct {
	emails     *MockStore[entity.Email]
	templates  *MockStore[entity.EmailTemplate]
	viewings   *MockStore[entity.Viewing]
	leads      *MockStore[entity.Lead]
	dispatcher *MockDispatcher
	uc         *EmailUseCase
}

func newEmailFixture() *emailFixture {
	f := &emailFixture{
		emails:     new(MockStore[entity.Email]),
		templates:  new(MockStore[entity.EmailTemplate]),
		viewings:   new(MockStore[entity.Viewing]),
		leads:      new(MockStore[entity.Lead]),
		dispatcher: new(MockDispatcher),
	}
	delivery := NewEmailDelivery(f.emails, new(MockMailer), nil)
	delivery.Now = fixedClock
	f.uc = NewEmailUseCase(f.emails, f.templates, f.viewings, f.leads, new(MockStore[entity.User]), f.dispatcher, delivery, "Rich Man Dream")
	f.uc.Now = fixedClock
	return f
}

func welcomeTemplate() *entity.EmailTemplate {
	return &entity.EmailTemplate{
		ID:           bson.NewObjectID(),
		Name:         "Welcome",
		Subject:      "Welcome, {lead_name}",
		Content:      "{agent_name} from {company_name} here.",
		TemplateType: TemplateWelcome,
		IsActive:     true,
	}
}

func TestSendTemplateRendersStoresAndDispatches(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	tmpl := welcomeTemplate()
	lead := leadOwnedBy(agentA)
	f.templates.On("FindOne", ctx, bson.M{"_id": tmpl.ID}).Return(tmpl, nil)
	f.leads.On("FindOne", ctx, bson.M{"_id": lead.ID}).Return(lead, nil)
	f.emails.On("Insert", ctx, mock.AnythingOfType("*entity.Email")).Return(nil)
	f.dispatcher.On("Dispatch", ctx, mock.Anything).Return(nil)

	email, err := f.uc.SendTemplate(ctx, agent, SendTemplateInput{
		TemplateID: entity.FormatID(tmpl.ID),
		LeadID:     entity.FormatID(lead.ID),
	})

	require.NoError(t, err)
	assert.Equal(t, "Welcome, John Smith", email.Subject)
	assert.Equal(t, "Michael Chen from Rich Man Dream here.", email.Content)
	assert.Equal(t, entity.EmailSent, email.Status)
	assert.Equal(t, "template", email.EmailType)
	assert.Equal(t, lead.Email, email.ToEmail)
	assert.Equal(t, agentA, email.AgentID)
	require.NotNil(t, email.SentAt)
	assert.Equal(t, fixedNow, *email.SentAt)
	f.dispatcher.AssertCalled(t, "Dispatch", ctx, email.ID)
}

func TestSendTemplateChecksInOrder(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	missing := bson.NewObjectID()
	inactive := welcomeTemplate()
	inactive.IsActive = false
	f.templates.On("FindOne", ctx, bson.M{"_id": missing}).Return(nil, nil)
	f.templates.On("FindOne", ctx, bson.M{"_id": inactive.ID}).Return(inactive, nil)
	leadID := entity.FormatID(bson.NewObjectID())

	_, err := f.uc.SendTemplate(ctx, agent, SendTemplateInput{TemplateID: "nope", LeadID: leadID})
	assert.Equal(t, "Invalid template ID", err.Error())

	_, err = f.uc.SendTemplate(ctx, agent, SendTemplateInput{TemplateID: entity.FormatID(missing), LeadID: leadID})
	assert.Equal(t, "Template not found", err.Error())

	_, err = f.uc.SendTemplate(ctx, agent, SendTemplateInput{TemplateID: entity.FormatID(inactive.ID), LeadID: leadID})
	assert.Equal(t, entity.CodeValidation, entity.CodeOf(err))
}

func TestTriggerNewLeadWithoutWelcomeTemplate(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	f.templates.On("FindOne", ctx, bson.M{"template_type": TemplateWelcome, "is_active": true}).Return(nil, nil)

	_, err := f.uc.TriggerNewLead(ctx, admin, entity.FormatID(bson.NewObjectID()))

	assert.Equal(t, entity.CodeNotFound, entity.CodeOf(err))
	assert.Equal(t, "No welcome template found", err.Error())
}

func TestDispatchFailureFailsTheEmail(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	f.emails.On("Insert", ctx, mock.Anything).Return(nil)
	f.dispatcher.On("Dispatch", ctx, mock.Anything).Return(errors.New("channel closed"))
	f.emails.On("Update", ctx, mock.MatchedBy(func(filter bson.M) bool {
		return filter["status"] == entity.EmailSent
	}), bson.M{"status": entity.EmailFailed, "updated_at": fixedNow}).Return(true, nil)

	refused := &countingRecorder{}
	f.uc.DispatchErrors = refused

	email, err := f.uc.Create(ctx, admin, EmailInput{
		ToEmail:   "john@example.com",
		FromEmail: "admin@realty.test",
		Subject:   "Hello",
		Content:   "Body",
		Status:    entity.EmailSent,
	})

	require.NoError(t, err)
	require.NotNil(t, email.SentAt)
	assert.Equal(t, 1, refused.refused)
	f.emails.AssertExpectations(t)
}

func TestCreateDraftEmailIsNotDispatched(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	f.emails.On("Insert", ctx, mock.Anything).Return(nil)

	email, err := f.uc.Create(ctx, agent, EmailInput{
		ToEmail:   "john@example.com",
		FromEmail: "michael@realty.test",
		Subject:   "Hello",
		Content:   "Body",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.EmailDraft, email.Status)
	assert.Equal(t, "manual", email.EmailType)
	assert.Equal(t, "outbound", email.Direction)
	assert.Nil(t, email.SentAt)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestUpdatingDraftToSentDispatches(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	draft := &entity.Email{ID: bson.NewObjectID(), Status: entity.EmailDraft, AgentID: agentA}
	f.emails.On("FindOne", ctx, bson.M{"_id": draft.ID}).Return(draft, nil)
	f.emails.On("Update", ctx, bson.M{"_id": draft.ID}, bson.M{
		"status":     entity.EmailSent,
		"sent_at":    fixedNow,
		"updated_at": fixedNow,
	}).Return(true, nil)
	f.dispatcher.On("Dispatch", ctx, draft.ID).Return(nil)
	sent := entity.EmailSent

	_, err := f.uc.Update(ctx, agent, entity.FormatID(draft.ID), EmailPatch{Status: &sent})

	require.NoError(t, err)
	f.dispatcher.AssertExpectations(t)
}

func TestSentEmailStatusIsLockedUntilDelivered(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	queued := &entity.Email{ID: bson.NewObjectID(), Status: entity.EmailSent, AgentID: agentA}
	f.emails.On("FindOne", ctx, bson.M{"_id": queued.ID}).Return(queued, nil)

	for _, status := range []string{entity.EmailDraft, entity.EmailDelivered, "read"} {
		_, err := f.uc.Update(ctx, agent, entity.FormatID(queued.ID), EmailPatch{Status: &status})
		require.Error(t, err, status)
		assert.Equal(t, entity.CodeValidation, entity.CodeOf(err), status)
	}
	f.emails.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func viewingReminderTemplate() *entity.EmailTemplate {
	return &entity.EmailTemplate{
		ID:           bson.NewObjectID(),
		Subject:      "Reminder: viewing at {time}",
		Content:      "{lead_name}, see you on {date} at {property}.",
		TemplateType: TemplateViewingReminder,
		IsActive:     true,
	}
}

func TestTriggerViewingReminderUsesViewingDetails(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	lead := leadOwnedBy(agentA)
	viewing := &entity.Viewing{
		ID: bson.NewObjectID(), Property: "Skyline Tower #2501", Date: "2024-03-20", Time: "2:00 PM",
		LeadID: &lead.ID, AgentID: agentA,
	}
	tmpl := viewingReminderTemplate()
	f.viewings.On("FindOne", ctx, bson.M{"_id": viewing.ID}).Return(viewing, nil)
	f.templates.On("FindOne", ctx, bson.M{"template_type": TemplateViewingReminder, "is_active": true}).Return(tmpl, nil)
	f.leads.On("FindOne", ctx, bson.M{"_id": lead.ID}).Return(lead, nil)
	f.emails.On("Insert", ctx, mock.AnythingOfType("*entity.Email")).Return(nil)
	f.dispatcher.On("Dispatch", ctx, mock.Anything).Return(nil)

	email, err := f.uc.TriggerViewingReminder(ctx, agent, entity.FormatID(viewing.ID))

	require.NoError(t, err)
	assert.Equal(t, "Reminder: viewing at 2:00 PM", email.Subject)
	assert.Equal(t, "John Smith, see you on 2024-03-20 at Skyline Tower #2501.", email.Content)
	assert.Equal(t, lead.Email, email.ToEmail)
	require.NotNil(t, email.TemplateID)
	assert.Equal(t, tmpl.ID, *email.TemplateID)
	f.dispatcher.AssertCalled(t, "Dispatch", ctx, email.ID)
}

func TestTriggerViewingReminderChecksInOrder(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	missing := bson.NewObjectID()
	theirs := &entity.Viewing{ID: bson.NewObjectID(), AgentID: agentB}
	noLead := &entity.Viewing{ID: bson.NewObjectID(), AgentID: agentA}
	f.viewings.On("FindOne", ctx, bson.M{"_id": missing}).Return(nil, nil)
	f.viewings.On("FindOne", ctx, bson.M{"_id": theirs.ID}).Return(theirs, nil)
	f.viewings.On("FindOne", ctx, bson.M{"_id": noLead.ID}).Return(noLead, nil)

	_, err := f.uc.TriggerViewingReminder(ctx, agent, "nope")
	assert.Equal(t, "Invalid viewing ID", err.Error())

	_, err = f.uc.TriggerViewingReminder(ctx, agent, entity.FormatID(missing))
	assert.Equal(t, "Viewing not found", err.Error())

	_, err = f.uc.TriggerViewingReminder(ctx, agent, entity.FormatID(theirs.ID))
	assert.Equal(t, entity.CodeForbidden, entity.CodeOf(err))

	_, err = f.uc.TriggerViewingReminder(ctx, agent, entity.FormatID(noLead.ID))
	assert.Equal(t, entity.CodeValidation, entity.CodeOf(err))

	_, err = f.uc.TriggerViewingReminder(ctx, viewer, entity.FormatID(noLead.ID))
	assert.Equal(t, entity.CodeForbidden, entity.CodeOf(err))
	f.templates.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestTriggerViewingReminderWithoutTemplate(t *testing.T) {
	ctx := context.Background()
	f := newEmailFixture()
	lead := bson.NewObjectID()
	viewing := &entity.Viewing{ID: bson.NewObjectID(), AgentID: agentA, LeadID: &lead}
	f.viewings.On("FindOne", ctx, bson.M{"_id": viewing.ID}).Return(viewing, nil)
	f.templates.On("FindOne", ctx, bson.M{"template_type": TemplateViewingReminder, "is_active": true}).Return(nil, nil)

	_, err := f.uc.TriggerViewingReminder(ctx, admin, entity.FormatID(viewing.ID))

	assert.Equal(t, "No viewing reminder template found", err.Error())
}

func TestTemplatesHideInactiveFromNonAdmins(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore[entity.EmailTemplate])
	tmpl := welcomeTemplate()
	tmpl.IsActive = false
	store.On("FindOne", ctx, bson.M{"_id": tmpl.ID}).Return(tmpl, nil)
	store.On("Count", ctx, bson.M{"is_active": true}).Return(int64(0), nil)
	store.On("Find", ctx, bson.M{"is_active": true}, mock.Anything).Return(nil, nil)
	uc := NewTemplateUseCase(store)

	_, err := uc.Get(ctx, agent, entity.FormatID(tmpl.ID))
	assert.Equal(t, "Template not found", err.Error())

	_, err = uc.Get(ctx, admin, entity.FormatID(tmpl.ID))
	assert.NoError(t, err)

	_, err = uc.List(ctx, viewer, ListQuery{Pager: Pager{Page: 1, Limit: 10}})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestTemplateMutationsAreAdminOnly(t *testing.T) {
	uc := NewTemplateUseCase(new(MockStore[entity.EmailTemplate]))

	_, err := uc.Create(context.Background(), agent, TemplateInput{})
	assert.Equal(t, "Admin access required", err.Error())

	_, err = uc.Update(context.Background(), agent, entity.FormatID(bson.NewObjectID()), TemplatePatch{})
	assert.Equal(t, "Admin access required", err.Error())
}

func TestCreateTemplateDerivesVariables(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore[entity.EmailTemplate])
	store.On("Insert", ctx, mock.Anything).Return(nil)

	tmpl, err := NewTemplateUseCase(store).Create(ctx, admin, TemplateInput{
		Name:         "Reminder",
		Subject:      "Viewing on {date}",
		Content:      "Hi {lead_name}, see you at {time}.",
		TemplateType: "viewing_reminder",
	})

	require.NoError(t, err)
	assert.True(t, tmpl.IsActive)
	assert.Equal(t, []string{"{date}", "{lead_name}", "{time}"}, tmpl.Variables)
}
