package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/realty-crm/internal/entity"
	"github.com/xavierca1/realty-crm/internal/usecase"
)

// TemplateSender covers the email actions that sit outside plain CRUD.
type TemplateSender interface {
	SendTemplate(ctx context.Context, p entity.Principal, in usecase.SendTemplateInput) (*entity.Email, error)
	TriggerNewLead(ctx context.Context, p entity.Principal, leadID string) (*entity.Email, error)
	TriggerViewingReminder(ctx context.Context, p entity.Principal, viewingID string) (*entity.Email, error)
}

type EmailActionHandler struct {
	emails TemplateSender
}

func NewEmailActionHandler(emails TemplateSender) *EmailActionHandler {
	return &EmailActionHandler{emails: emails}
}

type queuedResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	EmailID string        `json:"email_id"`
	Email   *entity.Email `json:"email"`
}

// The email actions read their ids from the JSON body, falling back to the
// query string for each id the body leaves empty.
func queryFallback(r *http.Request, fields map[string]*string) {
	q := r.URL.Query()
	for key, dst := range fields {
		if *dst == "" {
			*dst = q.Get(key)
		}
	}
}

func (h *EmailActionHandler) SendTemplate(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.SendTemplateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	queryFallback(r, map[string]*string{"template_id": &in.TemplateID, "lead_id": &in.LeadID})
	email, err := h.emails.SendTemplate(r.Context(), p, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queuedResponse{
		Success: true,
		Message: "Template email queued for sending",
		EmailID: entity.FormatID(email.ID),
		Email:   email,
	})
}

func (h *EmailActionHandler) TriggerNewLead(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		LeadID string `json:"lead_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	queryFallback(r, map[string]*string{"lead_id": &body.LeadID})
	email, err := h.emails.TriggerNewLead(r.Context(), p, body.LeadID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queuedResponse{
		Success: true,
		Message: "Welcome email triggered",
		EmailID: entity.FormatID(email.ID),
		Email:   email,
	})
}

func (h *EmailActionHandler) TriggerViewingReminder(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		ViewingID string `json:"viewing_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	queryFallback(r, map[string]*string{"viewing_id": &body.ViewingID})
	email, err := h.emails.TriggerViewingReminder(r.Context(), p, body.ViewingID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queuedResponse{
		Success: true,
		Message: "Viewing reminder email triggered",
		EmailID: entity.FormatID(email.ID),
		Email:   email,
	})
}
