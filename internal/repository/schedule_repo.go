package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wakeup-schedule/internal/model"
)

// ScheduleRepository 用户课表数据访问接口
type ScheduleRepository interface {
	// GetByUserID 查询用户课表（含课程），不存在时返回 gorm.ErrRecordNotFound
	GetByUserID(ctx context.Context, userID string) (*model.UserSchedule, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]model.UserSchedule, error)
	// ListWithCourses 列出所有至少有一门课程的用户课表
	ListWithCourses(ctx context.Context) ([]model.UserSchedule, error)
	// Save 在事务中写入课表头并全量替换课程
	Save(ctx context.Context, schedule *model.UserSchedule) error
	// SaveProfile 仅写入昵称与签名，记录不存在时按 schedule 创建
	SaveProfile(ctx context.Context, schedule *model.UserSchedule) error
	// Delete 删除用户课表，返回是否确有记录被删除
	Delete(ctx context.Context, userID string) (bool, error)
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) GetByUserID(ctx context.Context, userID string) (*model.UserSchedule, error) {
	var s model.UserSchedule
	err := r.db.WithContext(ctx).
		Preload("Courses", func(db *gorm.DB) *gorm.DB {
			return db.Order("day ASC, start_time ASC")
		}).
		Where("user_id = ?", userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]model.UserSchedule, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var list []model.UserSchedule
	err := r.db.WithContext(ctx).
		Preload("Courses").
		Where("user_id IN ?", userIDs).
		Find(&list).Error
	return list, err
}

func (r *scheduleRepo) ListWithCourses(ctx context.Context) ([]model.UserSchedule, error) {
	var list []model.UserSchedule
	err := r.db.WithContext(ctx).
		Preload("Courses").
		Where("EXISTS (SELECT 1 FROM courses c WHERE c.user_id = user_schedules.user_id)").
		Order("user_id ASC").
		Find(&list).Error
	return list, err
}

func (r *scheduleRepo) Save(ctx context.Context, schedule *model.UserSchedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		schedule.UpdatedAt = time.Now()
		if err := tx.Omit("Courses").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"table_name", "semester_start", "nickname", "signature", "updated_at"}),
		}).Create(schedule).Error; err != nil {
			return err
		}

		// 课程整体替换，不保留旧数据
		if err := tx.Where("user_id = ?", schedule.UserID).Delete(&model.Course{}).Error; err != nil {
			return err
		}
		if len(schedule.Courses) == 0 {
			return nil
		}
		for i := range schedule.Courses {
			schedule.Courses[i].UserID = schedule.UserID
		}
		return tx.Create(&schedule.Courses).Error
	})
}

func (r *scheduleRepo) SaveProfile(ctx context.Context, schedule *model.UserSchedule) error {
	schedule.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Omit("Courses").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "signature", "updated_at"}),
	}).Create(schedule).Error
}

func (r *scheduleRepo) Delete(ctx context.Context, userID string) (bool, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserSchedule{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
