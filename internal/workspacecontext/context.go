package workspacecontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// WorkspaceContextKey is the request context key for the active workspace ID.
type WorkspaceContextKey struct{}

// WithWorkspaceID stores the workspace ID in the context.
func WithWorkspaceID(ctx context.Context, workspaceID int64) context.Context {
	return context.WithValue(ctx, WorkspaceContextKey{}, workspaceID)
}

// WorkspaceIDFromContext returns the workspace ID from context, if set.
func WorkspaceIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	value := ctx.Value(WorkspaceContextKey{})
	if value == nil {
		return 0, false
	}
	switch typed := value.(type) {
	case int64:
		return snowflake.ID(typed), true
	case snowflake.ID:
		return typed, true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}
