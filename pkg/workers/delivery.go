// Package workers contains the timer-driven background loops of the dispatch
// service: the delivery worker draining the email queue and the archive
// retention culler.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/maylhq/mayl/pkg/db"
	"github.com/maylhq/mayl/pkg/email"
	"github.com/maylhq/mayl/pkg/metrics"
)

// DeliveryWorker drains the email queue on a fixed poll interval. Rows are
// processed sequentially in enqueue order within a cycle; cycles never
// overlap because a single goroutine owns the loop.
type DeliveryWorker struct {
	DbConn      db.DatabaseClient
	Sender      email.Sender
	Period      time.Duration
	MaxAttempts int
}

// Run polls the queue until the context is cancelled.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.Period)

	glog.Info("Starting delivery worker...")
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return fmt.Errorf("stopped delivery worker: %w", context.Canceled)
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *DeliveryWorker) runCycle(ctx context.Context) {
	pending, err := w.DbConn.ListQueuedEmails()
	if err != nil {
		glog.Errorf("delivery worker failed to list queue: %v", err)
		return
	}

	for i := range pending {
		w.deliver(ctx, &pending[i])
	}

	if size, err := w.DbConn.CountQueuedEmails(); err == nil {
		metrics.DefaultInstance().SetQueueSize(size)
	}
}

// deliver attempts one queued email. On success the row is moved into the
// archive in a single transaction; on failure the attempt counter grows until
// MaxAttempts is reached, at which point the row is dead-lettered. The store
// guard is never held while the SMTP call is in flight.
func (w *DeliveryWorker) deliver(ctx context.Context, item *db.QueuedEmail) {
	var to []string
	if err := json.Unmarshal([]byte(item.ToAddrs), &to); err != nil {
		glog.Errorf("queued email %s has an unreadable recipient list, dead-lettering: %v", item.ID, err)
		w.deadLetter(item, fmt.Sprintf("unreadable recipient list: %v", err))
		return
	}

	msg := &email.Message{
		From:    item.FromAddr,
		To:      to,
		Subject: item.Subject,
		Body:    item.Body,
		HTML:    item.HTML,
	}

	if err := w.Sender.Send(ctx, msg); err != nil {
		glog.Warningf("failed to deliver queued email %s (attempt %d): %v", item.ID, item.Attempts+1, err)
		if item.Attempts+1 >= w.MaxAttempts {
			w.deadLetter(item, err.Error())
			return
		}
		if dbErr := w.DbConn.RecordDeliveryFailure(item.ID, err.Error()); dbErr != nil {
			glog.Errorf("failed to record delivery failure for %s: %v", item.ID, dbErr)
		}
		return
	}

	archived := &db.ArchivedEmail{
		FromAddr: item.FromAddr,
		ToAddrs:  item.ToAddrs,
		Subject:  item.Subject,
		Body:     item.Body,
		HTML:     item.HTML,
		SentAt:   time.Now().UnixMilli(),
	}
	if err := w.DbConn.MoveToArchive(item.ID, archived); err != nil {
		glog.Errorf("failed to archive delivered email %s: %v", item.ID, err)
		return
	}

	metrics.DefaultInstance().IncDeliveredEmail()
	glog.Infof("delivered queued email %s", item.ID)
}

func (w *DeliveryWorker) deadLetter(item *db.QueuedEmail, lastError string) {
	dead := &db.DeadEmail{
		ID:         item.ID,
		FromAddr:   item.FromAddr,
		ToAddrs:    item.ToAddrs,
		Subject:    item.Subject,
		Body:       item.Body,
		HTML:       item.HTML,
		EnqueuedAt: item.EnqueuedAt,
		Attempts:   item.Attempts + 1,
		LastError:  lastError,
		DeadAt:     time.Now().UnixMilli(),
	}
	if err := w.DbConn.MoveToDeadLetter(dead); err != nil {
		glog.Errorf("failed to dead-letter email %s: %v", item.ID, err)
		return
	}
	metrics.DefaultInstance().IncDeadLetterEmail()
	glog.Warningf("dead-lettered email %s after %d attempts", item.ID, dead.Attempts)
}
