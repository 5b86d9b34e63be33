package models

import "time"

// 项目状态常量（流水线状态机，严格线性推进）
const (
	ProjectStatusCreated     = "created"      // 项目已创建，尚未生成任何产物
	ProjectStatusScriptReady = "script_ready" // 脚本（分镜 JSON）已生成并通过校验
	ProjectStatusImagesReady = "images_ready" // 每个分镜的画面图片已全部生成
	ProjectStatusAudioReady  = "audio_ready"  // 每个分镜的旁白音频已全部生成
	ProjectStatusVideoReady  = "video_ready"  // 成片已合成
	ProjectStatusPackaged    = "packaged"     // 素材包已打包，流水线成功结束
	ProjectStatusFailed      = "failed"       // 任一阶段失败，流水线终止
)

type Project struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Prompt      string    `json:"prompt"`
	HighQuality bool      `json:"highQuality"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	FailedStage string    `json:"failedStage"`
	Error       string    `json:"error"`
	VideoPath   string    `json:"videoPath"`
	ArchivePath string    `json:"archivePath"`
	VideoUrl    string    `json:"videoUrl"`
	ArchiveUrl  string    `json:"archiveUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Project) TableName() string {
	return "project"
}
