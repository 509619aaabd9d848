package mailer

import "context"

// Static reports a fixed email availability taken from configuration.
type Static struct {
	configured bool
}

func NewStatic(configured bool) Static { return Static{configured: configured} }

func (s Static) Configured(context.Context) (bool, error) { return s.configured, nil }
