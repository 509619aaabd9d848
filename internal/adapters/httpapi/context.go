package httpapi

import (
	"context"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

type operatorKey struct{}

func WithOperator(ctx context.Context, op domain.OperatorID) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

func OperatorFromContext(ctx context.Context) (domain.OperatorID, bool) {
	v, ok := ctx.Value(operatorKey{}).(domain.OperatorID)
	return v, ok && v != ""
}
