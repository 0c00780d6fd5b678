package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wakeup-schedule/internal/model"
)

// SkipFlagRepository 翘课标记数据访问接口
type SkipFlagRepository interface {
	// Get 查询单个用户的翘课标记，未设置时返回 false
	Get(ctx context.Context, userID string) (bool, error)
	// GetMany 批量查询，结果只包含 skipping=true 的用户
	GetMany(ctx context.Context, userIDs []string) (map[string]bool, error)
	// CompareAndSet 将标记设为 skipping；标记已是目标值时 changed=false
	CompareAndSet(ctx context.Context, userID string, skipping bool) (changed bool, err error)
}

type skipFlagRepo struct {
	db *gorm.DB
}

// NewSkipFlagRepo 创建基于 PostgreSQL 的 SkipFlagRepository
func NewSkipFlagRepo(db *gorm.DB) SkipFlagRepository {
	return &skipFlagRepo{db: db}
}

func (r *skipFlagRepo) Get(ctx context.Context, userID string) (bool, error) {
	var flag model.SkipFlag
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&flag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return flag.Skipping, nil
}

func (r *skipFlagRepo) GetMany(ctx context.Context, userIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var flags []model.SkipFlag
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND skipping = ?", userIDs, true).
		Find(&flags).Error
	if err != nil {
		return nil, err
	}
	for _, f := range flags {
		result[f.UserID] = true
	}
	return result, nil
}

// CompareAndSet 行锁串行化同一用户的并发切换
func (r *skipFlagRepo) CompareAndSet(ctx context.Context, userID string, skipping bool) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var flag model.SkipFlag
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&flag).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !skipping {
				return nil
			}
			// 首次开启：并发插入时只有一方成功
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.SkipFlag{
				UserID:    userID,
				Skipping:  true,
				UpdatedAt: time.Now(),
			})
			if res.Error != nil {
				return res.Error
			}
			changed = res.RowsAffected == 1
			return nil
		case err != nil:
			return err
		}

		if flag.Skipping == skipping {
			return nil
		}
		if err := tx.Model(&flag).Updates(map[string]interface{}{
			"skipping":   skipping,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}
