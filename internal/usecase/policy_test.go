package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

func TestScopeFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, ScopeFilter(admin, leadOwnerField))
	assert.Equal(t, bson.M{}, ScopeFilter(viewer, leadOwnerField))
	assert.Equal(t, bson.M{leadOwnerField: agentA}, ScopeFilter(agent, leadOwnerField))
	assert.Equal(t, bson.M{}, ScopeFilter(agent, ""))
}

func TestPolicyMatrix(t *testing.T) {
	tests := []struct {
		name       string
		p          entity.Principal
		owner      bson.ObjectID
		owned      bool
		view, edit bool
	}{
		{"admin on someone else's record", admin, agentB, true, true, true},
		{"agent on own record", agent, agentA, true, true, true},
		{"agent on another agent's record", agent, agentB, true, false, false},
		{"agent on unassigned record", agent, bson.ObjectID{}, true, false, false},
		{"agent on unowned collection", agent, bson.ObjectID{}, false, true, false},
		{"viewer reads but never edits", viewer, agentA, true, true, false},
		{"unknown role", entity.Principal{UserID: agentA}, agentA, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.view, CanView(tt.p, tt.owner, tt.owned))
			assert.Equal(t, tt.edit, CanMutate(tt.p, tt.owner, tt.owned))
		})
	}
}

func TestOnlyAdminsDelete(t *testing.T) {
	assert.True(t, CanDelete(admin))
	assert.False(t, CanDelete(agent))
	assert.False(t, CanDelete(viewer))
	assert.True(t, CanCreate(agent))
	assert.False(t, CanCreate(viewer))
}

func TestAndIntersectsFilters(t *testing.T) {
	assert.Equal(t, bson.M{"a": 1}, and(bson.M{}, bson.M{"a": 1}))
	assert.Equal(t, bson.M{"a": 1, "b": 2}, and(bson.M{"a": 1}, bson.M{"b": 2}))
	assert.Equal(t, bson.M{"$and": bson.A{bson.M{"a": 1}, bson.M{"a": 2}}}, and(bson.M{"a": 1}, bson.M{"a": 2}))
}
