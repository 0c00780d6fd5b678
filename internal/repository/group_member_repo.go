package repository

import (
	"context"

	"gorm.io/gorm"

	"wakeup-schedule/internal/model"
)

// GroupMemberRepository 群成员数据访问接口
type GroupMemberRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]model.GroupMember, error)
	// ReplaceGroup 在事务中全量替换群成员列表
	ReplaceGroup(ctx context.Context, groupID string, members []model.GroupMember) error
}

type groupMemberRepo struct {
	db *gorm.DB
}

// NewGroupMemberRepo 创建 GroupMemberRepository 实例
func NewGroupMemberRepo(db *gorm.DB) GroupMemberRepository {
	return &groupMemberRepo{db: db}
}

func (r *groupMemberRepo) ListByGroup(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	var members []model.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("user_id ASC").
		Find(&members).Error
	return members, err
}

func (r *groupMemberRepo) ReplaceGroup(ctx context.Context, groupID string, members []model.GroupMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&model.GroupMember{}).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		for i := range members {
			members[i].GroupID = groupID
		}
		return tx.Create(&members).Error
	})
}
