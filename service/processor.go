package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"PromptToVideo-server/config"
	"PromptToVideo-server/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Processor 消费异步生成任务：加载项目、独占工作区执行流水线、把终态与产物写回 DB
type Processor struct {
	DB *gorm.DB
}

func NewProcessor(db *gorm.DB) *Processor {
	return &Processor{DB: db}
}

// StartProcessor 启动任务消费者
func (p *Processor) StartProcessor(concurrency int) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.Redis.Addr,
			Password: config.AppConfig.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerateVideo, p.HandleGenerateVideo)

	log.Printf("Starting Task Processor with concurrency %d...", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("could not run server: %v", err)
		}
	}()
}

// 状态机状态 -> 任务进度（粗粒度，供 WebSocket 推送）
var stageProgress = map[string]int{
	models.ProjectStatusScriptReady: 20,
	models.ProjectStatusImagesReady: 40,
	models.ProjectStatusAudioReady:  60,
	models.ProjectStatusVideoReady:  80,
	models.ProjectStatusPackaged:    100,
}

// HandleGenerateVideo 核心处理逻辑：同步跑完整条流水线（阶段内严格串行，无并发扇出）
func (p *Processor) HandleGenerateVideo(ctx context.Context, t *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	task, err := models.GetTaskByIDGorm(p.DB, payload.TaskID)
	if err != nil {
		return fmt.Errorf("task not found: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Processing Task: %s | Type: %s", task.ID, task.Type)
	if err := task.UpdateStatus(p.DB, models.TaskStatusProcessing, ""); err != nil {
		log.Printf("UpdateStatus processing failed: %v", err)
	}

	project, err := models.GetProjectByID(task.ProjectId)
	if err != nil {
		task.UpdateStatus(p.DB, models.TaskStatusFailed, fmt.Sprintf("project not found: %v", err))
		return nil
	}

	ws, err := NewWorkspace(config.AppConfig.Paths.Workspace, config.AppConfig.Paths.Output, project.ID)
	if err != nil {
		models.MarkProjectFailed(project.ID, StageScript, err.Error())
		task.UpdateStatus(p.DB, models.TaskStatusFailed, err.Error())
		return nil
	}

	creds := Credentials{APIKey: payload.APIKey, PiAPIKey: payload.PiAPIKey}
	gen := NewGenerator(ws, project.Prompt, creds, project.HighQuality)
	gen.OnStage = func(status string) {
		if err := models.UpdateProjectStage(project.ID, status); err != nil {
			log.Printf("更新项目状态失败: %v", err)
		}
		if progress, ok := stageProgress[status]; ok {
			task.UpdateProgress(p.DB, status, progress, "状态推进: "+status)
		}
	}
	gen.OnScript = func(script *models.Script) {
		records := make([]models.SceneRecord, 0, len(script.Scenes))
		now := time.Now()
		for _, scene := range script.OrderedScenes() {
			records = append(records, models.SceneRecord{
				ID:          uuid.NewString(),
				ProjectId:   project.ID,
				Number:      scene.Number,
				Description: scene.Description,
				Text:        scene.Text,
				Status:      models.SceneStatusPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		if err := models.BatchCreateScenes(p.DB, records); err != nil {
			log.Printf("分镜落库失败: %v", err)
		}
	}

	result, runErr := gen.Run(ctx)
	if runErr != nil {
		var stageErr *StageError
		stage := ""
		if errors.As(runErr, &stageErr) {
			stage = stageErr.Stage
		}
		models.MarkProjectFailed(project.ID, stage, runErr.Error())
		task.UpdateStatus(p.DB, models.TaskStatusFailed, runErr.Error())
		return nil // 业务失败是终态，不触发重试
	}

	if err := models.MarkProjectPackaged(project.ID, result.Title, result.VideoPath, result.ArchivePath); err != nil {
		log.Printf("写入项目终态失败: %v", err)
	}
	p.backfillSceneArtifacts(ws, result)

	// 可选：把成品上传到对象存储并记录预签名地址
	if MinioClient != nil {
		p.uploadFinalArtifacts(project.ID, result)
	}

	task.UpdateStatus(p.DB, models.TaskStatusSuccess, "")
	log.Printf("Task %s completed successfully", task.ID)
	return nil
}

// backfillSceneArtifacts 回填每个分镜的产物路径与实测时长
func (p *Processor) backfillSceneArtifacts(ws *Workspace, result *PipelineResult) {
	for _, scene := range result.Script.OrderedScenes() {
		updates := map[string]interface{}{
			"image_path": ws.ImagePath(scene.Number),
			"audio_path": ws.AudioPath(scene.Number),
			"status":     models.SceneStatusCompleted,
		}
		if d, ok := result.Durations[scene.Number]; ok {
			updates["duration"] = d
		}
		if err := models.UpdateSceneArtifacts(p.DB, ws.ProjectID, scene.Number, updates); err != nil {
			log.Printf("回填分镜 %d 产物失败: %v", scene.Number, err)
		}
	}
}

func (p *Processor) uploadFinalArtifacts(projectID string, result *PipelineResult) {
	videoURL, err := UploadArtifact(result.VideoPath, fmt.Sprintf("projects/%s/%s", projectID, filepath.Base(result.VideoPath)))
	if err != nil {
		log.Printf("视频上传 MinIO 失败: %v", err)
		return
	}
	archiveURL, err := UploadArtifact(result.ArchivePath, fmt.Sprintf("projects/%s/%s", projectID, filepath.Base(result.ArchivePath)))
	if err != nil {
		log.Printf("素材包上传 MinIO 失败: %v", err)
		return
	}
	if err := models.UpdateProjectObjectURLs(projectID, videoURL, archiveURL); err != nil {
		log.Printf("写入对象存储地址失败: %v", err)
	}
}
