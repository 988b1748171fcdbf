package events

import (
	"context"
	"errors"

	"github.com/dmitrymomot/donoralert/svc/alert"
)

// Multi forwards every event to each publisher and joins their errors.
type Multi []alert.Publisher

func (m Multi) AlertCreated(ctx context.Context, a alert.Alert) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.AlertCreated(ctx, a))
	}
	return errors.Join(errs...)
}

func (m Multi) AlertSent(ctx context.Context, a alert.Alert, recipients int) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.AlertSent(ctx, a, recipients))
	}
	return errors.Join(errs...)
}

func (m Multi) FanOutFailed(ctx context.Context, a alert.Alert, cause error) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.FanOutFailed(ctx, a, cause))
	}
	return errors.Join(errs...)
}
