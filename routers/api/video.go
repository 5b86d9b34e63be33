package api

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"PromptToVideo-server/config"
	"PromptToVideo-server/models"
	"PromptToVideo-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type generateRequest struct {
	Prompt      string `json:"prompt"`
	APIKey      string `json:"api_key"`
	PiAPIKey    string `json:"pi_api_key"`
	HighQuality bool   `json:"high_quality"`
}

// GenerateVideo 同步生成：阻塞到整条流水线结束，返回成片与素材包的下载地址
func GenerateVideo(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	// prompt 与主凭证缺失属于调用方错误，不进入流水线
	if req.Prompt == "" || req.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Prompt e chave da API são obrigatórios"})
		return
	}

	project := models.Project{
		ID:          uuid.NewString(),
		Prompt:      req.Prompt,
		HighQuality: req.HighQuality,
		Status:      models.ProjectStatusCreated,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := models.CreateProject(&project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "创建项目失败: " + err.Error()})
		return
	}

	ws, err := service.NewWorkspace(config.AppConfig.Paths.Workspace, config.AppConfig.Paths.Output, project.ID)
	if err != nil {
		models.MarkProjectFailed(project.ID, service.StageScript, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	creds := service.Credentials{APIKey: req.APIKey, PiAPIKey: req.PiAPIKey}
	gen := service.NewGenerator(ws, req.Prompt, creds, req.HighQuality)
	gen.OnStage = func(status string) {
		if err := models.UpdateProjectStage(project.ID, status); err != nil {
			log.Printf("更新项目状态失败: %v", err)
		}
	}

	result, runErr := gen.Run(c.Request.Context())
	if runErr != nil {
		stage := ""
		var stageErr *service.StageError
		if errors.As(runErr, &stageErr) {
			stage = stageErr.Stage
		}
		models.MarkProjectFailed(project.ID, stage, runErr.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": runErr.Error()})
		return
	}

	if err := models.MarkProjectPackaged(project.ID, result.Title, result.VideoPath, result.ArchivePath); err != nil {
		log.Printf("写入项目终态失败: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"title":       result.Title,
		"video_url":   "/download/" + project.ID + "/" + filepath.Base(result.VideoPath),
		"project_url": "/download/" + project.ID + "/" + filepath.Base(result.ArchivePath),
	})
}

// GenerateVideoAsync 异步生成：建项目建任务入队，立即返回任务号
func GenerateVideoAsync(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Prompt == "" || req.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Prompt e chave da API são obrigatórios"})
		return
	}

	project := models.Project{
		ID:          uuid.NewString(),
		Prompt:      req.Prompt,
		HighQuality: req.HighQuality,
		Status:      models.ProjectStatusCreated,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := models.CreateProject(&project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建项目失败: " + err.Error()})
		return
	}

	task := models.Task{
		ID:        uuid.NewString(),
		ProjectId: project.ID,
		Type:      models.TaskTypeGenerateVideo,
		Status:    models.TaskStatusPending,
		Message:   "生成任务已创建，等待执行",
	}
	if err := models.CreateTask(&task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建任务失败: " + err.Error()})
		return
	}

	if err := service.EnqueueGenerateVideo(task.ID, req.APIKey, req.PiAPIKey); err != nil {
		log.Printf("生成任务入队失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "任务入队失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": project.ID,
		"task_id":    task.ID,
	})
}

// DownloadFile 按 (项目 ID, 文件名) 提供产物下载；未知组合返回 404
func DownloadFile(c *gin.Context) {
	projectID := filepath.Base(c.Param("project_id"))
	filename := filepath.Base(c.Param("filename"))

	fullPath := filepath.Join(config.AppConfig.Paths.Output, projectID, filename)
	if _, err := os.Stat(fullPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.File(fullPath)
}
