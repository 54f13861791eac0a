package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

type RenderContext struct {
	Lead *entity.Lead
	// Viewing, when set, supplies {date}, {time}, {property} and {address}.
	Viewing     *entity.Viewing
	AgentName   string
	AgentEmail  string
	CompanyName string
	Now         time.Time
}

type Rendered struct {
	Subject string
	Body    string
}

// Render fills the placeholders of t in a single pass. Placeholders it does not
// know are left as written, and substituted values are never expanded again.
func Render(t *entity.EmailTemplate, rc RenderContext) Rendered {
	var lead entity.Lead
	if rc.Lead != nil {
		lead = *rc.Lead
	}
	date, clock := rc.Now.Format("January 02, 2006"), rc.Now.Format("03:04 PM")
	var viewing []string
	if v := rc.Viewing; v != nil {
		date, clock = v.Date, v.Time
		viewing = []string{"{property}", v.Property, "{address}", v.Address}
	}
	r := strings.NewReplacer(append([]string{
		"{lead_name}", lead.Name,
		"{lead_email}", lead.Email,
		"{lead_phone}", lead.Phone,
		"{lead_budget}", lead.Budget,
		"{property_type}", lead.PropertyType,
		"{agent_name}", rc.AgentName,
		"{agent_email}", rc.AgentEmail,
		"{company_name}", rc.CompanyName,
		"{date}", date,
		"{time}", clock,
	}, viewing...)...)
	return Rendered{Subject: r.Replace(t.Subject), Body: r.Replace(t.Content)}
}

// EmailDelivery performs the send for an email in status "sent" and records the outcome.
type EmailDelivery struct {
	Emails  entity.Store[entity.Email]
	Mailer  Mailer
	Metrics DeliveryRecorder
	Now     Clock
}

func NewEmailDelivery(emails entity.Store[entity.Email], mailer Mailer, metrics DeliveryRecorder) *EmailDelivery {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &EmailDelivery{Emails: emails, Mailer: mailer, Metrics: metrics, Now: utcNow}
}

// Deliver sends one email and moves it from "sent" to "delivered" or "failed".
// The move is conditional on the status still being "sent", so redelivered tasks
// never change an outcome that is already recorded. A send failure is an outcome,
// not an error; the returned error is reserved for storage problems.
func (d *EmailDelivery) Deliver(ctx context.Context, id bson.ObjectID) (string, error) {
	log := zerolog.Ctx(ctx).With().Str("email_id", entity.FormatID(id)).Logger()

	email, err := d.Emails.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return "", fmt.Errorf("find email %s: %w", entity.FormatID(id), err)
	}
	if email == nil {
		log.Warn().Msg("email vanished before delivery")
		return "", nil
	}
	if email.Status != entity.EmailSent {
		log.Debug().Str("status", email.Status).Msg("email already settled")
		return email.Status, nil
	}

	status := entity.EmailDelivered
	if err := d.Mailer.Send(ctx, email); err != nil {
		log.Error().Err(err).Str("to", email.ToEmail).Msg("email send failed")
		status = entity.EmailFailed
	}

	settled, err := d.settle(ctx, id, status)
	if err != nil {
		return "", err
	}
	if !settled {
		return status, nil
	}
	if status == entity.EmailDelivered {
		d.Metrics.Delivered()
	} else {
		d.Metrics.Failed()
	}
	log.Info().Str("status", status).Msg("email delivery recorded")
	return status, nil
}

// MarkFailed settles an email that could not be handed to the worker.
func (d *EmailDelivery) MarkFailed(ctx context.Context, id bson.ObjectID) error {
	settled, err := d.settle(ctx, id, entity.EmailFailed)
	if err == nil && settled {
		d.Metrics.Failed()
	}
	return err
}

// Expire fails every email that has been waiting in "sent" since before cutoff.
func (d *EmailDelivery) Expire(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := d.Emails.Find(ctx, bson.M{
		"status":  entity.EmailSent,
		"sent_at": bson.M{"$lt": cutoff},
	}, entity.FindOptions{Limit: 500})
	if err != nil {
		return 0, fmt.Errorf("find stale emails: %w", err)
	}

	expired := 0
	for _, e := range stale {
		settled, err := d.settle(ctx, e.ID, entity.EmailFailed)
		if err != nil {
			return expired, err
		}
		if settled {
			d.Metrics.Failed()
			expired++
		}
	}
	return expired, nil
}

func (d *EmailDelivery) settle(ctx context.Context, id bson.ObjectID, status string) (bool, error) {
	matched, err := d.Emails.Update(ctx,
		bson.M{"_id": id, "status": entity.EmailSent},
		bson.M{"status": status, "updated_at": d.Now()},
	)
	if err != nil {
		return false, fmt.Errorf("record %s for email %s: %w", status, entity.FormatID(id), err)
	}
	return matched, nil
}
