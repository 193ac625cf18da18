package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/cwu2020/reflist-sub001/internal/auditcontext"
	"github.com/cwu2020/reflist-sub001/internal/workspacecontext"
)

const (
	HeaderWorkspace = "X-Workspace-ID"
	HeaderActorID   = "X-Actor-ID"
	HeaderActorType = "X-Actor-Type"
)

// WorkspaceContext resolves the tenant for the request from the workspace
// header, falling back to the configured single-tenant default.
func (s *Server) WorkspaceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderWorkspace))

		var workspaceID int64
		if raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil {
				AbortWithError(c, newValidationError("workspace_id", "invalid_workspace", "invalid workspace id"))
				return
			}
			workspaceID = int64(parsed)
		} else {
			workspaceID = s.cfg.DefaultWorkspaceID
		}

		if workspaceID != 0 {
			ctx := workspacecontext.WithWorkspaceID(c.Request.Context(), workspaceID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// ActorContext threads the acting identity through for audit records.
func (s *Server) ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := strings.TrimSpace(c.GetHeader(HeaderActorID))
		if actorID == "" {
			c.Next()
			return
		}
		actorType := strings.TrimSpace(c.GetHeader(HeaderActorType))
		if actorType == "" {
			actorType = "admin"
		}

		ctx := auditcontext.WithActor(c.Request.Context(), actorType, actorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
