package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	EmailDraft     = "draft"
	EmailSent      = "sent"
	EmailDelivered = "delivered"
	EmailFailed    = "failed"
	EmailRead      = "read"
)

type Email struct {
	ID         bson.ObjectID  `bson:"_id" json:"id"`
	LeadID     *bson.ObjectID `bson:"lead_id,omitempty" json:"lead_id"`
	LeadName   string         `bson:"lead_name,omitempty" json:"lead_name,omitempty"`
	ToEmail    string         `bson:"to_email" json:"to_email"`
	FromEmail  string         `bson:"from_email" json:"from_email"`
	Subject    string         `bson:"subject" json:"subject"`
	Content    string         `bson:"content" json:"content"`
	EmailType  string         `bson:"email_type" json:"email_type"` // manual, automated, template
	TemplateID *bson.ObjectID `bson:"template_id,omitempty" json:"template_id,omitempty"`
	Status     string         `bson:"status" json:"status"`
	Direction  string         `bson:"direction" json:"direction"` // inbound, outbound
	AgentID    bson.ObjectID  `bson:"agent_id" json:"agent_id"`
	AgentName  string         `bson:"agent_name" json:"agent_name"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at" json:"updated_at"`
	SentAt     *time.Time     `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
}

func (e *Email) Owner() bson.ObjectID { return e.AgentID }

type EmailTemplate struct {
	ID           bson.ObjectID `bson:"_id" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Subject      string        `bson:"subject" json:"subject"`
	Content      string        `bson:"content" json:"content"`
	TemplateType string        `bson:"template_type" json:"template_type"`
	Variables    []string      `bson:"variables" json:"variables"`
	IsActive     bool          `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}
