package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

func seededUser() *entity.User {
	return &entity.User{
		ID:           agentA,
		Name:         "Michael Chen",
		Email:        "michael@realty.test",
		Role:         entity.RoleAgent,
		PasswordHash: "$2a$10$hash",
	}
}

func TestLoginUnknownEmailIsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	users := new(MockStore[entity.User])
	users.On("FindOne", ctx, bson.M{"email": "nobody@realty.test"}).Return(nil, nil)

	_, err := NewAuthUseCase(users, new(MockHasher), new(MockIssuer)).Login(ctx, LoginInput{Email: "nobody@realty.test", Password: "x"})

	require.Error(t, err)
	assert.Equal(t, entity.CodeUnauthenticated, entity.CodeOf(err))
	assert.Equal(t, "Invalid email or password", err.Error())
}

func TestLoginWrongPasswordIsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	users := new(MockStore[entity.User])
	hasher := new(MockHasher)
	issuer := new(MockIssuer)
	users.On("FindOne", ctx, mock.Anything).Return(seededUser(), nil)
	hasher.On("Compare", "$2a$10$hash", "wrong").Return(false)

	_, err := NewAuthUseCase(users, hasher, issuer).Login(ctx, LoginInput{Email: "michael@realty.test", Password: "wrong"})

	assert.Equal(t, "Invalid email or password", err.Error())
	issuer.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestLoginReturnsTokenAndProfile(t *testing.T) {
	ctx := context.Background()
	users := new(MockStore[entity.User])
	hasher := new(MockHasher)
	issuer := new(MockIssuer)
	u := seededUser()
	users.On("FindOne", ctx, mock.Anything).Return(u, nil)
	hasher.On("Compare", u.PasswordHash, "password123").Return(true)
	issuer.On("Issue", entity.Principal{UserID: agentA, Email: u.Email, Name: u.Name, Role: entity.RoleAgent}).Return("signed.jwt.token", nil)

	out, err := NewAuthUseCase(users, hasher, issuer).Login(ctx, LoginInput{Email: " michael@realty.test ", Password: "password123"})

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "signed.jwt.token", out.Token)
	assert.Equal(t, "Login successful", out.Message)
	assert.Equal(t, entity.FormatID(agentA), out.User.ID)
	assert.Equal(t, entity.RoleAgent, out.User.Role)
}

func TestMeReloadsTheAccount(t *testing.T) {
	ctx := context.Background()
	users := new(MockStore[entity.User])
	users.On("FindOne", ctx, bson.M{"email": agent.Email}).Return(seededUser(), nil)
	users.On("FindOne", ctx, bson.M{"email": other.Email}).Return(nil, nil)
	uc := NewAuthUseCase(users, new(MockHasher), new(MockIssuer))

	me, err := uc.Me(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, "Michael Chen", me.Name)

	_, err = uc.Me(ctx, other)
	assert.Equal(t, entity.CodeNotFound, entity.CodeOf(err))
}

func TestUserListIsAdminOnly(t *testing.T) {
	_, err := NewUserUseCase(new(MockStore[entity.User]), new(MockHasher)).List(context.Background(), agent, ListQuery{Pager: Pager{Page: 1, Limit: 10}})
	assert.Equal(t, "Admin access required", err.Error())
}

func TestUserCanReadAndEditOnlyThemselves(t *testing.T) {
	ctx := context.Background()
	users := new(MockStore[entity.User])
	me := seededUser()
	lisa := &entity.User{ID: agentB, Name: "Lisa Park", Role: entity.RoleAgent}
	users.On("FindOne", ctx, bson.M{"_id": agentA}).Return(me, nil)
	users.On("FindOne", ctx, bson.M{"_id": agentB}).Return(lisa, nil)
	users.On("Update", ctx, bson.M{"_id": agentA}, mock.Anything).Return(true, nil)
	uc := NewUserUseCase(users, new(MockHasher))
	name := "Mike Chen"

	_, err := uc.Get(ctx, agent, entity.FormatID(agentB))
	assert.Equal(t, entity.CodeForbidden, entity.CodeOf(err))

	_, err = uc.Update(ctx, agent, entity.FormatID(agentB), UserPatch{Name: &name})
	assert.Equal(t, entity.CodeForbidden, entity.CodeOf(err))

	_, err = uc.Update(ctx, agent, entity.FormatID(agentA), UserPatch{Name: &name})
	assert.NoError(t, err)
}

func TestOnlyAdminsChangeRoles(t *testing.T) {
	ctx := context.Background()
	users := new(MockStore[entity.User])
	users.On("FindOne", ctx, bson.M{"_id": agentA}).Return(seededUser(), nil)
	users.On("Update", ctx, mock.Anything, mock.Anything).Return(true, nil)
	uc := NewUserUseCase(users, new(MockHasher))
	role := string(entity.RoleAdmin)

	_, err := uc.Update(ctx, agent, entity.FormatID(agentA), UserPatch{Role: &role})
	assert.Equal(t, "Only admins can change roles", err.Error())

	_, err = uc.Update(ctx, admin, entity.FormatID(agentA), UserPatch{Role: &role})
	assert.NoError(t, err)
}

func TestPasswordChangeIsHashed(t *testing.T) {
	ctx := context.Background()
	users := new(MockStore[entity.User])
	hasher := new(MockHasher)
	users.On("FindOne", ctx, bson.M{"_id": agentA}).Return(seededUser(), nil)
	hasher.On("Hash", "correct horse").Return("$2a$10$new", nil)
	users.On("Update", ctx, bson.M{"_id": agentA}, mock.MatchedBy(func(set bson.M) bool {
		return set["password"] == "$2a$10$new"
	})).Return(true, nil)
	pw := "correct horse"

	_, err := NewUserUseCase(users, hasher).Update(ctx, agent, entity.FormatID(agentA), UserPatch{Password: &pw})

	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := new(MockStore[entity.User])
	users.On("FindOne", ctx, bson.M{"email": "michael@realty.test"}).Return(seededUser(), nil)

	_, err := NewUserUseCase(users, new(MockHasher)).Create(ctx, admin, UserInput{
		Name: "Michael", Email: "michael@realty.test", Password: "password123",
	})

	assert.Equal(t, entity.CodeConflict, entity.CodeOf(err))
}
