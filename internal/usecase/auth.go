package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

const msgBadCredentials = "Invalid email or password"

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginOutput struct {
	Success bool               `json:"success"`
	Token   string             `json:"token"`
	User    entity.UserProfile `json:"user"`
	Message string             `json:"message"`
}

type AuthUseCase struct {
	Users  entity.Store[entity.User]
	Hasher PasswordHasher
	Tokens TokenIssuer
}

func NewAuthUseCase(users entity.Store[entity.User], hasher PasswordHasher, tokens TokenIssuer) *AuthUseCase {
	return &AuthUseCase{Users: users, Hasher: hasher, Tokens: tokens}
}

// Login exchanges credentials for a bearer token. Unknown email and wrong
// password are indistinguishable to the caller.
func (uc *AuthUseCase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := checkInput(in); err != nil {
		return nil, err
	}

	u, err := uc.Users.FindOne(ctx, bson.M{"email": in.Email})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if u == nil || !uc.Hasher.Compare(u.PasswordHash, in.Password) {
		return nil, entity.Unauthenticated(msgBadCredentials)
	}

	token, err := uc.Tokens.Issue(entity.Principal{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginOutput{
		Success: true,
		Token:   token,
		User:    u.Profile(),
		Message: "Login successful",
	}, nil
}

// Me reloads the caller's account so profile changes show up without a new token.
func (uc *AuthUseCase) Me(ctx context.Context, p entity.Principal) (*entity.UserProfile, error) {
	u, err := uc.Users.FindOne(ctx, bson.M{"email": p.Email})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if u == nil {
		return nil, entity.NotFound("User not found")
	}
	profile := u.Profile()
	return &profile, nil
}
