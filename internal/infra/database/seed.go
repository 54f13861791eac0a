package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

const seedPassword = "password123"

var (
	SeedAdminID = mustID("65a1b2c3d4e5f6789abcdef0")
	SeedAgentID = mustID("65a1b2c3d4e5f6789abcdef1")
	SeedLisaID  = mustID("65a1b2c3d4e5f6789abcdef2")

	seedLeadJohn  = mustID("65a1b2c3d4e5f6789abcdef3")
	seedLeadEmma  = mustID("65a1b2c3d4e5f6789abcdef4")
	seedLeadDavid = mustID("65a1b2c3d4e5f6789abcdef5")
)

func mustID(hex string) bson.ObjectID {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		panic(err)
	}
	return id
}

// Seed fills an empty database with demo users and records. It does nothing
// once the users collection holds at least one document.
func Seed(ctx context.Context, s *Stores, hash func(string) (string, error), now time.Time) error {
	log := zerolog.Ctx(ctx)

	n, err := s.Users.Count(ctx, bson.M{})
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("users", n).Msg("database already seeded, skipping")
		return nil
	}

	pw, err := hash(seedPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	now = now.UTC()
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	ptr := func(t time.Time) *time.Time { return &t }
	ref := func(id bson.ObjectID) *bson.ObjectID { return &id }

	users := []entity.User{
		{ID: SeedAdminID, Name: "Sarah Johnson", Email: "sarah.johnson@richmansdream.com", Role: entity.RoleAdmin},
		{ID: SeedAgentID, Name: "Michael Chen", Email: "michael.chen@richmansdream.com", Role: entity.RoleAgent},
		{ID: SeedLisaID, Name: "Lisa Park", Email: "lisa.park@richmansdream.com", Role: entity.RoleAgent},
	}
	for i := range users {
		users[i].PasswordHash = pw
		users[i].CreatedAt, users[i].UpdatedAt = now, now
		if err := s.Users.Insert(ctx, &users[i]); err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].Email, err)
		}
	}

	leads := []entity.Lead{
		{
			ID: seedLeadJohn, Name: "John Williams", Email: "john.williams@email.com", Phone: "+1 (555) 123-4567",
			Status: entity.LeadHot, Source: "Website", Budget: "$850,000", PropertyType: "Luxury Condo",
			AssignedAgent: "Sarah Johnson", AssignedAgentID: ref(SeedAdminID),
			Notes:     "Downtown high-rise with a city view.",
			CreatedAt: day(2024, time.January, 15), LastContact: ptr(day(2024, time.January, 20)),
		},
		{
			ID: seedLeadEmma, Name: "Emma Rodriguez", Email: "emma.rodriguez@email.com", Phone: "+1 (555) 234-5678",
			Status: entity.LeadWarm, Source: "Referral", Budget: "$1,200,000", PropertyType: "Single Family Home",
			AssignedAgent: "Michael Chen", AssignedAgentID: ref(SeedAgentID),
			Notes:     "Family home in the suburbs, four bedrooms or more.",
			CreatedAt: day(2024, time.January, 12), LastContact: ptr(day(2024, time.January, 19)),
		},
		{
			ID: seedLeadDavid, Name: "David Thompson", Email: "david.thompson@email.com", Phone: "+1 (555) 345-6789",
			Status: entity.LeadCold, Source: "Social Media", Budget: "$650,000", PropertyType: "Townhouse",
			AssignedAgent: "Lisa Park", AssignedAgentID: ref(SeedLisaID),
			Notes:     "First-time buyer, asking about financing.",
			CreatedAt: day(2024, time.January, 10), LastContact: ptr(day(2024, time.January, 17)),
		},
	}
	for i := range leads {
		leads[i].UpdatedAt = now
		if err := s.Leads.Insert(ctx, &leads[i]); err != nil {
			return fmt.Errorf("seed lead %s: %w", leads[i].Email, err)
		}
	}

	calls := []entity.Call{
		{
			LeadID: seedLeadJohn, LeadName: "John Williams", Agent: "Sarah Johnson", AgentID: SeedAdminID,
			Type: "outbound", Duration: "12:34", Date: "2024-01-20", Time: "2:30 PM", Status: "completed",
			Notes: "Went over the viewing schedule for Skyline Tower.", CreatedAt: day(2024, time.January, 20),
		},
		{
			LeadID: seedLeadEmma, LeadName: "Emma Rodriguez", Agent: "Michael Chen", AgentID: SeedAgentID,
			Type: "inbound", Duration: "8:15", Date: "2024-01-19", Time: "10:15 AM", Status: "completed",
			Notes: "Wants weekend viewings.", CreatedAt: day(2024, time.January, 19),
		},
	}
	for i := range calls {
		calls[i].ID = bson.NewObjectID()
		if err := s.Calls.Insert(ctx, &calls[i]); err != nil {
			return fmt.Errorf("seed call: %w", err)
		}
	}

	viewing := entity.Viewing{
		ID: bson.NewObjectID(), Property: "Skyline Tower #2501", Address: "123 Downtown Ave, Suite 2501",
		Date: "2024-01-25", Time: "2:00 PM", LeadName: "John Williams", LeadID: ref(seedLeadJohn),
		Agent: "Sarah Johnson", AgentID: SeedAdminID, Status: entity.ViewingScheduled,
		Price: "$850,000", Type: "Luxury Condo", CreatedAt: now,
	}
	if err := s.Viewings.Insert(ctx, &viewing); err != nil {
		return fmt.Errorf("seed viewing: %w", err)
	}

	sale := entity.Sale{
		ID: bson.NewObjectID(), LeadID: seedLeadJohn, LeadName: "John Williams", Property: "Skyline Tower #2501",
		Agent: "Sarah Johnson", AgentID: SeedAdminID, Stage: entity.StageNegotiation, Value: "$850,000",
		Probability: 75, ExpectedClose: "2024-02-15", CreatedAt: now, LastActivity: day(2024, time.January, 20),
	}
	if err := s.Sales.Insert(ctx, &sale); err != nil {
		return fmt.Errorf("seed sale: %w", err)
	}

	for _, t := range seedTemplates() {
		t.ID = bson.NewObjectID()
		t.IsActive = true
		t.CreatedAt, t.UpdatedAt = now, now
		if err := s.Templates.Insert(ctx, &t); err != nil {
			return fmt.Errorf("seed template %s: %w", t.Name, err)
		}
	}

	sentAt := time.Date(2024, time.January, 19, 11, 30, 0, 0, time.UTC)
	welcome := entity.Email{
		ID: bson.NewObjectID(), LeadID: ref(seedLeadEmma), LeadName: "Emma Rodriguez",
		ToEmail: "emma.rodriguez@email.com", FromEmail: "michael.chen@richmansdream.com",
		Subject:   "Welcome to Rich Man Dream!",
		Content:   "Welcome! I will call you tomorrow to go through your requirements.",
		EmailType: "template", Status: entity.EmailDelivered, Direction: "outbound",
		AgentID: SeedAgentID, AgentName: "Michael Chen",
		CreatedAt: sentAt, UpdatedAt: sentAt, SentAt: &sentAt,
	}
	if err := s.Emails.Insert(ctx, &welcome); err != nil {
		return fmt.Errorf("seed email: %w", err)
	}

	log.Info().Str("login", users[0].Email).Msg("database seeded")
	return nil
}

func seedTemplates() []entity.EmailTemplate {
	return []entity.EmailTemplate{
		{
			Name:         "Welcome New Lead",
			Subject:      "Welcome to {company_name}, {lead_name}!",
			TemplateType: "welcome",
			Content: `Dear {lead_name},

I'm {agent_name}, your agent at {company_name}. You told us you're looking for a {property_type} around {lead_budget}, and we'd love to help.

I'll call you within 24 hours. You can always reach me at {agent_email}.

Best regards,
{agent_name}`,
			Variables: []string{"{lead_name}", "{company_name}", "{agent_name}", "{property_type}", "{lead_budget}", "{agent_email}"},
		},
		{
			Name:         "Viewing Reminder",
			Subject:      "Reminder: property viewing at {time}",
			TemplateType: "viewing_reminder",
			Content: `Dear {lead_name},

A reminder that your viewing of {property} is booked for {date} at {time} with {agent_name}.
The address is {address}.

Please arrive a few minutes early.

{company_name}`,
			Variables: []string{"{lead_name}", "{property}", "{date}", "{time}", "{agent_name}", "{address}", "{company_name}"},
		},
		{
			Name:         "Follow Up",
			Subject:      "Still looking for your {property_type}?",
			TemplateType: "follow_up",
			Content: `Dear {lead_name},

New listings in the {lead_budget} range have come on the market since we last spoke.

Reply to {agent_email} and we will set up a time. We have {lead_phone} on file if a call is easier.

{agent_name}
{company_name}`,
			Variables: []string{"{lead_name}", "{property_type}", "{lead_budget}", "{agent_email}", "{lead_phone}", "{agent_name}", "{company_name}"},
		},
	}
}
