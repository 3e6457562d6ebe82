package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
)

// UpsertCode replaces any pending code for the same channel and subject.
func (r *GormRepo) UpsertCode(ctx context.Context, code *models.VerificationCode) error {
	code.IsVerified = false
	code.Attempts = 0
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel"}, {Name: "subject"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "is_verified", "attempts", "updated_at"}),
	}).Create(code).Error
}

func (r *GormRepo) GetCode(ctx context.Context, channel models.VerificationChannel, subject string) (*models.VerificationCode, error) {
	var code models.VerificationCode
	err := r.DB.WithContext(ctx).
		Where("channel = ? AND subject = ?", channel, subject).
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *GormRepo) IncrementAttempts(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

// ConsumeCode marks a code verified. It reports false if the code was already
// used, so a code can be redeemed once even under concurrent requests.
func (r *GormRepo) ConsumeCode(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ? AND is_verified = ?", id, false).
		Update("is_verified", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
