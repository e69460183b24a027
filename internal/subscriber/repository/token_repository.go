package repository

import (
	"context"
	"time"

	"alertsphere/internal/subscriber/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository stores subscriber push tokens.
type TokenRepository interface {
	Save(ctx context.Context, owner, token, platform string) error
	FindByOwner(ctx context.Context, owner string) ([]domain.Subscriber, error)
	TokensByPlatform(ctx context.Context, platform string) ([]string, error)
	Delete(ctx context.Context, token string) error
	DeleteMany(ctx context.Context, tokens []string) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Save inserts or refreshes a token (atomic upsert keyed by token).
func (r *tokenRepository) Save(ctx context.Context, owner, token, platform string) error {
	now := time.Now()
	sub := &domain.Subscriber{
		ID:        uuid.New().String(),
		Owner:     owner,
		Token:     token,
		Platform:  platform,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "platform", "updated_at"}),
	}).Create(sub).Error
}

func (r *tokenRepository) FindByOwner(ctx context.Context, owner string) ([]domain.Subscriber, error) {
	var subs []domain.Subscriber
	if err := r.db.WithContext(ctx).Where("owner = ?", owner).Order("created_at").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *tokenRepository) TokensByPlatform(ctx context.Context, platform string) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&domain.Subscriber{}).
		Where("platform = ?", platform).
		Order("created_at").
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Delete removes one token. A missing token is ErrNotFound.
func (r *tokenRepository) Delete(ctx context.Context, token string) error {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&domain.Subscriber{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *tokenRepository) DeleteMany(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&domain.Subscriber{})
	return res.RowsAffected, res.Error
}
