package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

const (
	msgUserExists    = "User with this email already exists"
	msgRoleAdminOnly = "Only admins can change roles"
)

type UserInput struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin agent viewer"`
	Avatar   *string `json:"avatar"`
}

type UserPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin agent viewer"`
	Avatar   *string `json:"avatar"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// Fields leaves the password out; it must be hashed before it is stored.
func (p UserPatch) Fields() (bson.M, error) {
	if err := checkInput(p); err != nil {
		return nil, err
	}
	set := bson.M{}
	setString(set, "name", p.Name)
	setString(set, "email", trimmed(p.Email))
	setString(set, "role", p.Role)
	setString(set, "avatar", p.Avatar)
	return set, nil
}

func UserSchema() Schema[entity.User] {
	return Schema[entity.User]{
		Name: "User",
		Sort: newestFirst,
		Filters: []Filter{
			{Param: "role", Field: "role", Kind: FilterEqual},
			{Param: "search", Kind: FilterSearch, Fields: []string{"name", "email"}},
		},
		Touch: func(now time.Time) bson.M { return bson.M{"updated_at": now} },
	}
}

// UserUseCase manages accounts. Admins manage everyone; other users only themselves.
// Users are never deleted.
type UserUseCase struct {
	*Resource[entity.User]
	Hasher PasswordHasher
}

func NewUserUseCase(users entity.Store[entity.User], hasher PasswordHasher) *UserUseCase {
	return &UserUseCase{Resource: NewResource(UserSchema(), users), Hasher: hasher}
}

func (uc *UserUseCase) List(ctx context.Context, p entity.Principal, q ListQuery) (*Page[entity.User], error) {
	if !p.IsAdmin() {
		return nil, entity.Forbidden(msgAdminRequired)
	}
	return uc.Resource.List(ctx, p, q)
}

func (uc *UserUseCase) Get(ctx context.Context, p entity.Principal, id string) (*entity.User, error) {
	u, err := uc.Resource.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && u.ID != p.UserID {
		return nil, entity.Forbidden(msgAccessDenied)
	}
	return u, nil
}

func (uc *UserUseCase) Create(ctx context.Context, p entity.Principal, in UserInput) (*entity.User, error) {
	if !p.IsAdmin() {
		return nil, entity.Forbidden(msgAdminRequired)
	}
	in.Email = strings.TrimSpace(in.Email)
	if err := checkInput(in); err != nil {
		return nil, err
	}

	existing, err := uc.Store.FindOne(ctx, bson.M{"email": in.Email})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		return nil, entity.Conflict(msgUserExists)
	}

	hash, err := uc.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := uc.Now()
	u := &entity.User{
		ID:           bson.NewObjectID(),
		Name:         in.Name,
		Email:        in.Email,
		Role:         entity.Role(orDefault(in.Role, string(entity.RoleAgent))),
		PasswordHash: hash,
		Avatar:       in.Avatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Store.Insert(ctx, u); err != nil {
		if errors.Is(err, entity.ErrDuplicateKey) {
			return nil, entity.Conflict(msgUserExists)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (uc *UserUseCase) Update(ctx context.Context, p entity.Principal, id string, patch UserPatch) (*entity.User, error) {
	oid, err := entity.ParseRef("user", id)
	if err != nil {
		return nil, err
	}
	set, err := patch.Fields()
	if err != nil {
		return nil, err
	}

	existing, err := uc.Lookup(ctx, oid)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, uc.notFound()
	}
	if !p.IsAdmin() {
		if existing.ID != p.UserID {
			return nil, entity.Forbidden(msgAccessDenied)
		}
		if patch.Role != nil && entity.Role(*patch.Role) != existing.Role {
			return nil, entity.Forbidden(msgRoleAdminOnly)
		}
	}

	if patch.Password != nil {
		hash, err := uc.Hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		set["password"] = hash
	}

	u, err := uc.apply(ctx, oid, existing, set)
	if errors.Is(err, entity.ErrDuplicateKey) {
		return nil, entity.Conflict(msgUserExists)
	}
	return u, err
}

// Delete is not offered; accounts are kept for the records that reference them.
func (uc *UserUseCase) Delete(context.Context, entity.Principal, string) error {
	return entity.Forbidden("Users cannot be deleted")
}
