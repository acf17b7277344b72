package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/domain"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type MemberRepo interface {
	Create(ctx context.Context, tx *gorm.DB, m *domain.Member) (*domain.Member, error)
	IsMember(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) (bool, error)
	ListOrganizationIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return &memberRepo{db: db, log: baseLog.With("repo", "MemberRepo")}
}

func (r *memberRepo) Create(ctx context.Context, tx *gorm.DB, m *domain.Member) (*domain.Member, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memberRepo) IsMember(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.Member{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *memberRepo) ListOrganizationIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&domain.Member{}).
		Where("user_id = ?", userID).
		Pluck("organization_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
