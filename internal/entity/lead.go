package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	LeadHot  = "hot"
	LeadWarm = "warm"
	LeadCold = "cold"
)

type Lead struct {
	ID              bson.ObjectID  `bson:"_id" json:"id"`
	Name            string         `bson:"name" json:"name"`
	Email           string         `bson:"email" json:"email"`
	Phone           string         `bson:"phone" json:"phone"`
	Status          string         `bson:"status" json:"status"` // hot, warm, cold
	Source          string         `bson:"source" json:"source"`
	Budget          string         `bson:"budget" json:"budget"`
	PropertyType    string         `bson:"property_type" json:"property_type"`
	AssignedAgent   string         `bson:"assigned_agent" json:"assigned_agent"`
	AssignedAgentID *bson.ObjectID `bson:"assigned_agent_id,omitempty" json:"assigned_agent_id"`
	Notes           string         `bson:"notes" json:"notes"`
	CreatedAt       time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at" json:"updated_at"`
	LastContact     *time.Time     `bson:"last_contact,omitempty" json:"last_contact"`
}

// Owner returns the assigned agent id, or the zero id while unassigned.
func (l *Lead) Owner() bson.ObjectID {
	if l.AssignedAgentID == nil {
		return bson.NilObjectID
	}
	return *l.AssignedAgentID
}
