package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	programdomain "github.com/cwu2020/reflist-sub001/internal/program/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, partner *Partner) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Partner, error)
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	SetDefaultPartner(ctx context.Context, db *gorm.DB, userID, partnerID snowflake.ID) error
	FindDefaultWorkspacePartner(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) (*Partner, error)
	EnsureEnrollment(ctx context.Context, db *gorm.DB, enrollment *programdomain.ProgramEnrollment) error
}
