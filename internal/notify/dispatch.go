package notify

import (
	"context"
	"fmt"

	"lmswatch-backend/internal/assert"
	"lmswatch-backend/internal/db"
	"lmswatch-backend/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lmswatch.notify")

const (
	report_dispatch_deliver = "dispatch.deliver"
	report_dispatch_store   = "dispatch.store"
)

// RecordStore is the storage a Dispatcher needs to settle a delivery.
type RecordStore interface {
	MarkRecordSent(ctx context.Context, id int64) error
	DeleteRecord(ctx context.Context, id int64) error
}

// Dispatcher sends stored records to their user. A record that could not be
// delivered is deleted so the next check sees it as a new item and tries again.
type Dispatcher struct {
	notifier Notifier
	store    RecordStore
	baseURL  string
	tel      telemetry.API
}

func NewDispatcher(notifier Notifier, store RecordStore, baseURL string, tel telemetry.API) Dispatcher {
	assert.NotNil(notifier, "notifier")
	assert.NotNil(store, "record store")
	assert.NotNil(tel, "telemetry")

	return Dispatcher{
		notifier: notifier,
		store:    store,
		baseURL:  baseURL,
		tel:      telemetry.NewScopedAPI("dispatch", tel),
	}
}

// Dispatch delivers rec (which must already be stored) to target. Nothing is
// sent for the first batch of a user. The returned bool reports whether the
// record was delivered. Delivery failures are not errors, only failing to
// settle the record in storage is.
func (d Dispatcher) Dispatch(ctx context.Context, rec db.Record, course db.Course, target string, firstBatch bool) (bool, error) {
	if firstBatch {
		return false, nil
	}

	ctx, span := tracer.Start(ctx, "Dispatch", trace.WithAttributes(
		attribute.Int64("record_id", rec.ID),
		attribute.String("course", course.SuffixURL),
	))
	defer span.End()

	err := d.notifier.Send(ctx, target, Render(rec, course, d.baseURL))
	if err != nil {
		d.tel.ReportWarning(report_dispatch_deliver, err, rec.ID, target)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deliver record")

		delErr := d.store.DeleteRecord(ctx, rec.ID)
		if delErr != nil {
			d.tel.ReportBroken(report_dispatch_store, delErr, "DeleteRecord", rec.ID)
			span.RecordError(delErr)
			return false, fmt.Errorf("delete undelivered record: %w", delErr)
		}
		return false, nil
	}

	err = d.store.MarkRecordSent(ctx, rec.ID)
	if err != nil {
		d.tel.ReportBroken(report_dispatch_store, err, "MarkRecordSent", rec.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark record sent")
		return true, fmt.Errorf("mark record sent: %w", err)
	}
	return true, nil
}

// Welcome tells a newly registered user how many items were picked up from
// their backlog.
func (d Dispatcher) Welcome(ctx context.Context, target string, processed int) error {
	err := d.notifier.Send(ctx, target, Welcome(processed))
	if err != nil {
		d.tel.ReportWarning(report_dispatch_deliver, err, "welcome", target)
		return err
	}
	return nil
}
