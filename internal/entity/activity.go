package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Call struct {
	ID        bson.ObjectID `bson:"_id" json:"id"`
	LeadID    bson.ObjectID `bson:"lead_id" json:"lead_id"`
	LeadName  string        `bson:"lead_name" json:"lead_name"`
	Agent     string        `bson:"agent" json:"agent"`
	AgentID   bson.ObjectID `bson:"agent_id" json:"agent_id"`
	Type      string        `bson:"type" json:"type"` // inbound, outbound
	Duration  string        `bson:"duration" json:"duration"`
	Date      string        `bson:"date" json:"date"`
	Time      string        `bson:"time" json:"time"`
	Status    string        `bson:"status" json:"status"` // completed, missed
	Notes     string        `bson:"notes" json:"notes"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}

func (c *Call) Owner() bson.ObjectID { return c.AgentID }

const (
	ViewingScheduled = "scheduled"
	ViewingCompleted = "completed"
	ViewingCancelled = "cancelled"
)

type Viewing struct {
	ID        bson.ObjectID  `bson:"_id" json:"id"`
	Property  string         `bson:"property" json:"property"`
	Address   string         `bson:"address" json:"address"`
	Date      string         `bson:"date" json:"date"`
	Time      string         `bson:"time" json:"time"`
	LeadName  string         `bson:"lead_name" json:"lead_name"`
	LeadID    *bson.ObjectID `bson:"lead_id,omitempty" json:"lead_id"`
	Agent     string         `bson:"agent" json:"agent"`
	AgentID   bson.ObjectID  `bson:"agent_id" json:"agent_id"`
	Status    string         `bson:"status" json:"status"`
	Price     string         `bson:"price" json:"price"`
	Type      string         `bson:"type" json:"type"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

func (v *Viewing) Owner() bson.ObjectID { return v.AgentID }

const (
	StageContacted   = "contacted"
	StageViewed      = "viewed"
	StageNegotiation = "negotiation"
	StageClosed      = "closed"
)

type Sale struct {
	ID            bson.ObjectID `bson:"_id" json:"id"`
	LeadID        bson.ObjectID `bson:"lead_id" json:"lead_id"`
	LeadName      string        `bson:"lead_name" json:"lead_name"`
	Property      string        `bson:"property" json:"property"`
	Agent         string        `bson:"agent" json:"agent"`
	AgentID       bson.ObjectID `bson:"agent_id" json:"agent_id"`
	Stage         string        `bson:"stage" json:"stage"`
	Value         string        `bson:"value" json:"value"` // formatted money, e.g. "$850,000"
	Probability   int           `bson:"probability" json:"probability"`
	ExpectedClose string        `bson:"expected_close" json:"expected_close"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
	LastActivity  time.Time     `bson:"last_activity" json:"last_activity"`
}

func (s *Sale) Owner() bson.ObjectID { return s.AgentID }
