package usecase

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

const (
	TemplateWelcome         = "welcome"
	TemplateViewingReminder = "viewing_reminder"
)

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

type TemplateInput struct {
	Name         string   `json:"name" validate:"required"`
	Subject      string   `json:"subject" validate:"required"`
	Content      string   `json:"content" validate:"required"`
	TemplateType string   `json:"template_type" validate:"required,oneof=welcome viewing_reminder sale_update follow_up custom"`
	Variables    []string `json:"variables"`
	IsActive     *bool    `json:"is_active"`
}

type TemplatePatch struct {
	Name         *string   `json:"name" validate:"omitempty,min=1"`
	Subject      *string   `json:"subject" validate:"omitempty,min=1"`
	Content      *string   `json:"content" validate:"omitempty,min=1"`
	TemplateType *string   `json:"template_type" validate:"omitempty,oneof=welcome viewing_reminder sale_update follow_up custom"`
	Variables    *[]string `json:"variables"`
	IsActive     *bool     `json:"is_active"`
}

func (p TemplatePatch) Fields() (bson.M, error) {
	if err := checkInput(p); err != nil {
		return nil, err
	}
	set := bson.M{}
	setString(set, "name", p.Name)
	setString(set, "subject", p.Subject)
	setString(set, "content", p.Content)
	setString(set, "template_type", p.TemplateType)
	if p.Variables != nil {
		set["variables"] = *p.Variables
	}
	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}
	return set, nil
}

func TemplateSchema() Schema[entity.EmailTemplate] {
	return Schema[entity.EmailTemplate]{
		Name: "Template",
		Sort: newestFirst,
		Filters: []Filter{
			{Param: "template_type", Field: "template_type", Kind: FilterEqual},
		},
		Touch: func(now time.Time) bson.M { return bson.M{"updated_at": now} },
	}
}

// TemplateUseCase manages email templates. Only admins change them and only
// admins see inactive ones.
type TemplateUseCase struct {
	*Resource[entity.EmailTemplate]
}

func NewTemplateUseCase(templates entity.Store[entity.EmailTemplate]) *TemplateUseCase {
	return &TemplateUseCase{Resource: NewResource(TemplateSchema(), templates)}
}

func (uc *TemplateUseCase) List(ctx context.Context, p entity.Principal, q ListQuery) (*Page[entity.EmailTemplate], error) {
	if !p.IsAdmin() {
		q.Base = and(q.Base, bson.M{"is_active": true})
	}
	return uc.Resource.List(ctx, p, q)
}

func (uc *TemplateUseCase) Get(ctx context.Context, p entity.Principal, id string) (*entity.EmailTemplate, error) {
	t, err := uc.Resource.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive && !p.IsAdmin() {
		return nil, uc.notFound()
	}
	return t, nil
}

func (uc *TemplateUseCase) Create(ctx context.Context, p entity.Principal, in TemplateInput) (*entity.EmailTemplate, error) {
	if !p.IsAdmin() {
		return nil, entity.Forbidden(msgAdminRequired)
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	now := uc.Now()
	t := &entity.EmailTemplate{
		ID:           bson.NewObjectID(),
		Name:         in.Name,
		Subject:      in.Subject,
		Content:      in.Content,
		TemplateType: in.TemplateType,
		Variables:    in.Variables,
		IsActive:     in.IsActive == nil || *in.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if len(t.Variables) == 0 {
		t.Variables = Placeholders(t.Subject + "\n" + t.Content)
	}
	if err := uc.Store.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return t, nil
}

func (uc *TemplateUseCase) Update(ctx context.Context, p entity.Principal, id string, patch TemplatePatch) (*entity.EmailTemplate, error) {
	if !p.IsAdmin() {
		return nil, entity.Forbidden(msgAdminRequired)
	}
	return uc.Resource.Update(ctx, p, id, patch)
}

// Placeholders lists the distinct {tokens} in s in order of first appearance.
func Placeholders(s string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, m := range placeholder.FindAllString(s, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
