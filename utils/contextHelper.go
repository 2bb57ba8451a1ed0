package utils

import (
	"context"

	"github.com/nexusvending/vending_backend/appctx"
)

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyResponsible   = appctx.ContextKeyResponsible
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

// responsible party sent by the client (X-Responsible header); used as the
// default for machine loads that omit it
func GetResponsibleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyResponsible)
}

func SetResponsibleInContext(ctx context.Context, responsible string) context.Context {
	return appctx.Set(ctx, ContextKeyResponsible, responsible)
}
