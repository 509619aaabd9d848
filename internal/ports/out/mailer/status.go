package mailer

import "context"

// Status reports whether outbound credential email is available.
type Status interface {
	Configured(ctx context.Context) (bool, error)
}
