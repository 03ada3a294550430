package storage

import (
	"context"
	"errors"
)

// Pinger is implemented by backends that can check connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck returns a readiness probe for the object store.
func Healthcheck(p Pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		if p == nil {
			return ErrHealthcheckFailed
		}
		if err := p.Ping(ctx); err != nil {
			if errors.Is(err, ErrHealthcheckFailed) {
				return err
			}
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
