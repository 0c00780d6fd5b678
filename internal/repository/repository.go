package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Schedule    ScheduleRepository
	SkipFlag    SkipFlagRepository
	GroupMember GroupMemberRepository
}

// NewRepository 创建 Repository 聚合
// 翘课标记默认存放在 PostgreSQL，可由调用方替换为 Redis 实现
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Schedule:    NewScheduleRepo(db),
		SkipFlag:    NewSkipFlagRepo(db),
		GroupMember: NewGroupMemberRepo(db),
	}
}
