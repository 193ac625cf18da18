package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type EnsurePartnerRequest struct {
	UserID snowflake.ID
}

// EnsureDefaultPartnerRequest provisions the workspace's system partner and
// its enrollment in the given program when none exists yet.
type EnsureDefaultPartnerRequest struct {
	WorkspaceID snowflake.ID
	ProgramID   snowflake.ID
}

type Service interface {
	// EnsurePartnerForUser resolves the user's default partner, creating one
	// named from the user profile when the user has none. The db handle may
	// be a transaction so provisioning commits atomically with the caller's
	// writes. Idempotent.
	EnsurePartnerForUser(ctx context.Context, db *gorm.DB, req EnsurePartnerRequest) (Partner, error)

	// EnsureDefaultPartner resolves or provisions the workspace default
	// partner and enrolls it in the program. Idempotent.
	EnsureDefaultPartner(ctx context.Context, db *gorm.DB, req EnsureDefaultPartnerRequest) (Partner, error)
}

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrUserNotFound     = errors.New("not_found")
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidProgram   = errors.New("invalid_program")
)
