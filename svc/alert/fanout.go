package alert

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/svc/audience"
	"github.com/dmitrymomot/donoralert/svc/notification"
)

// FanOut resolves the alert's audience inside tx and writes one notification
// per recipient in chunks of at most batchSize. The alert must already carry
// its SentAt, which becomes the notifications' CreatedAt.
//
// Any failure is wrapped in ErrPartialFanOut; the caller rolls tx back.
func FanOut(ctx context.Context, tx Tx, a Alert, batchSize int) ([]notification.Notification, error) {
	if a.SentAt == nil {
		return nil, fmt.Errorf("fan out alert %s: sent_at is not set", a.ID)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	recipients, err := audience.Resolve(ctx, tx.Directory(), a.Audience)
	if err != nil {
		return nil, errors.Join(ErrPartialFanOut, fmt.Errorf("resolve audience: %w", err))
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	alertID := a.ID
	batch := make([]notification.Notification, 0, len(recipients))
	for _, p := range recipients {
		batch = append(batch, notification.Notification{
			ID:        uuid.New(),
			UserID:    p.UserID,
			Title:     a.Title,
			Message:   a.Message,
			Type:      notification.TypeAlert,
			AlertID:   &alertID,
			CreatedAt: *a.SentAt,
		})
	}

	written := 0
	for chunk := range slices.Chunk(batch, batchSize) {
		n, err := tx.Notifications().BatchInsert(ctx, chunk)
		if err != nil {
			return nil, errors.Join(ErrPartialFanOut,
				fmt.Errorf("insert notifications %d-%d of %d: %w", written, written+len(chunk), len(batch), err))
		}
		if n != len(chunk) {
			return nil, errors.Join(ErrPartialFanOut,
				fmt.Errorf("insert notifications %d-%d of %d: wrote %d rows", written, written+len(chunk), len(batch), n))
		}
		written += n
	}
	return batch, nil
}
