package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/pkg/enums"
)

type contextKey string

const (
	ctxCustomerID contextKey = "customer_id"
	ctxUserRole   contextKey = "user_role"
)

// ContextWithCustomer seeds the request context with the authenticated
// customer identity.
func ContextWithCustomer(ctx context.Context, customerID uuid.UUID, role enums.UserRole) context.Context {
	ctx = context.WithValue(ctx, ctxCustomerID, customerID)
	return context.WithValue(ctx, ctxUserRole, role)
}

// CustomerIDFromContext returns the authenticated customer id, or uuid.Nil
// when the request is anonymous.
func CustomerIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ctxCustomerID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// RoleFromContext returns the authenticated role, or the empty role when
// the request is anonymous.
func RoleFromContext(ctx context.Context) enums.UserRole {
	if role, ok := ctx.Value(ctxUserRole).(enums.UserRole); ok {
		return role
	}
	return ""
}
