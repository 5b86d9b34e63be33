package models

import (
	"time"

	"gorm.io/gorm"
)

// 任务状态（在系统中统一使用这些状态）
const (
	// pending: 任务已入队，等待执行器取走执行
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusSuccess    = "finished"
	TaskStatusFailed     = "failed"

	// 唯一的任务类型：完整执行一次视频生成流水线
	TaskTypeGenerateVideo = "generate_video"
)

type Task struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId  string    `json:"projectId"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage"`    // 当前执行到的流水线阶段
	Progress   int       `json:"progress"` // 0-100，按阶段粗粒度推进
	Message    string    `json:"message"`
	Error      string    `json:"error"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (t *Task) UpdateStatus(db *gorm.DB, status string, errMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	if status == TaskStatusProcessing {
		updates["started_at"] = time.Now()
	}
	if status == TaskStatusSuccess || status == TaskStatusFailed {
		updates["finished_at"] = time.Now()
		updates["progress"] = 100
	}
	return db.Model(t).Updates(updates).Error
}

// UpdateProgress 推进阶段与进度（供 WebSocket 端推送使用）
func (t *Task) UpdateProgress(db *gorm.DB, stage string, progress int, message string) error {
	return db.Model(t).Updates(map[string]interface{}{
		"stage":      stage,
		"progress":   progress,
		"message":    message,
		"updated_at": time.Now(),
	}).Error
}

func GetTaskByIDGorm(db *gorm.DB, taskID string) (*Task, error) {
	var task Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// 强制指定表名为 "task"
func (Task) TableName() string {
	return "task"
}
