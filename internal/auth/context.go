package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxOperator ctxKey = iota
	ctxRole
)

func WithOperator(ctx context.Context, operator, role string) context.Context {
	ctx = context.WithValue(ctx, ctxOperator, operator)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func Operator(ctx context.Context) (string, error) {
	v := ctx.Value(ctxOperator)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("operator not in context")
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}
