// Package dispatch implements the core submission, domain registry and stats
// operations behind the HTTP layer.
package dispatch

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/maylhq/mayl/pkg/auth"
	"github.com/maylhq/mayl/pkg/db"
	"github.com/maylhq/mayl/pkg/email"
	"github.com/maylhq/mayl/pkg/metrics"
)

// Submission outcome statuses as surfaced in API responses.
const (
	StatusSent   = "sent"
	StatusQueued = "queued"
)

// EmailRequest is a send request as submitted by a client.
type EmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	HTML    string   `json:"html,omitempty"`
}

// Outcome reports how a submission was handled. ID is generated at submission
// time and is only used for the immediate response and log correlation; it is
// not the archive key.
type Outcome struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Stats are the aggregate queue and archive sizes.
type Stats struct {
	QueueSize   int64 `json:"queue_size"`
	ArchiveSize int64 `json:"archive_size"`
}

// Dispatcher accepts validated send requests and either delivers them
// immediately via the SMTP relay or enqueues them for the delivery worker.
type Dispatcher struct {
	dbConn db.DatabaseClient
	sender email.Sender
}

// NewDispatcher creates a Dispatcher backed by the given store and relay.
func NewDispatcher(dbConn db.DatabaseClient, sender email.Sender) *Dispatcher {
	return &Dispatcher{dbConn: dbConn, sender: sender}
}

// Submit handles one send request. With sync the message is delivered inline
// and, when save is set, archived; otherwise it is enqueued for the delivery
// worker and save is ignored (archiving then happens on the worker's eventual
// success). Validation runs before any side effect.
func (d *Dispatcher) Submit(ctx context.Context, req EmailRequest, sync, save bool) (*Outcome, error) {
	fromDomain, err := auth.ExtractDomain(req.From)
	if err != nil {
		return nil, ValidationError{Reason: "from address has no domain part"}
	}
	if len(req.To) == 0 {
		return nil, ValidationError{Reason: "to list is empty"}
	}
	if req.Subject == "" {
		return nil, ValidationError{Reason: "subject is empty"}
	}
	if req.Body == "" {
		return nil, ValidationError{Reason: "body is empty"}
	}

	if !sync {
		return d.enqueue(req, fromDomain)
	}

	msg := &email.Message{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Body,
		HTML:    req.HTML,
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		metrics.DefaultInstance().IncFailedSendEmail(fromDomain)
		return nil, DeliveryError{Err: err}
	}
	metrics.DefaultInstance().IncSendEmail(fromDomain)

	id := uuid.NewString()
	if save {
		archived, err := archivedFromRequest(req, nowMillis())
		if err != nil {
			glog.Warningf("failed to archive sent email %s: %v", id, err)
		} else if err := d.dbConn.InsertArchivedEmail(archived); err != nil {
			// The message is already out; losing the archive copy is
			// not worth failing the request over.
			glog.Warningf("failed to archive sent email %s: %v", id, err)
		}
	}

	glog.Infof("sent email %s from domain %s", id, fromDomain)
	return &Outcome{ID: id, Status: StatusSent}, nil
}

func (d *Dispatcher) enqueue(req EmailRequest, fromDomain string) (*Outcome, error) {
	toJSON, err := json.Marshal(req.To)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize recipient list")
	}

	queued := &db.QueuedEmail{
		ID:         uuid.NewString(),
		FromAddr:   req.From,
		ToAddrs:    string(toJSON),
		Subject:    req.Subject,
		Body:       req.Body,
		HTML:       req.HTML,
		EnqueuedAt: nowMillis(),
		Attempts:   0,
	}
	if err := d.dbConn.InsertQueuedEmail(queued); err != nil {
		return nil, errors.Wrap(err, "failed to enqueue email")
	}

	metrics.DefaultInstance().IncQueuedEmail(fromDomain)
	glog.Infof("queued email %s from domain %s", queued.ID, fromDomain)
	return &Outcome{ID: queued.ID, Status: StatusQueued}, nil
}

// RegisterDomain registers a sender domain and returns its bearer token.
// Re-registration is idempotent in shape: the existing row is kept but its
// token is rotated, so only the latest token authorizes sends.
func (d *Dispatcher) RegisterDomain(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" || !strings.Contains(domain, ".") {
		return "", ValidationError{Reason: "invalid domain"}
	}

	token := uuid.NewString()
	if err := d.dbConn.UpsertDomain(domain, token, nowMillis()); err != nil {
		return "", errors.Wrapf(err, "failed to register domain %s", domain)
	}

	glog.Infof("registered domain %s", domain)
	return token, nil
}

// ListDomains returns all registered domains ordered by name.
func (d *Dispatcher) ListDomains() ([]db.Domain, error) {
	return d.dbConn.ListDomains()
}

// RemoveDomain deletes a domain registration and reports whether it existed.
func (d *Dispatcher) RemoveDomain(domain string) (bool, error) {
	deleted, err := d.dbConn.DeleteDomain(strings.ToLower(domain))
	if err != nil {
		return false, errors.Wrapf(err, "failed to remove domain %s", domain)
	}
	if deleted {
		glog.Infof("removed domain %s", domain)
	}
	return deleted, nil
}

// Stats returns the aggregate queue and archive sizes and refreshes the
// corresponding gauges.
func (d *Dispatcher) Stats() (*Stats, error) {
	queueSize, err := d.dbConn.CountQueuedEmails()
	if err != nil {
		return nil, errors.Wrap(err, "failed to count queued emails")
	}
	archiveSize, err := d.dbConn.CountArchivedEmails()
	if err != nil {
		return nil, errors.Wrap(err, "failed to count archived emails")
	}

	m := metrics.DefaultInstance()
	m.SetQueueSize(queueSize)
	m.SetArchiveSize(archiveSize)

	return &Stats{QueueSize: queueSize, ArchiveSize: archiveSize}, nil
}

func archivedFromRequest(req EmailRequest, sentAt int64) (*db.ArchivedEmail, error) {
	toJSON, err := json.Marshal(req.To)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize recipient list")
	}
	return &db.ArchivedEmail{
		FromAddr: req.From,
		ToAddrs:  string(toJSON),
		Subject:  req.Subject,
		Body:     req.Body,
		HTML:     req.HTML,
		SentAt:   sentAt,
	}, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
