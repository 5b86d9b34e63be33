package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"PromptToVideo-server/config"

	"github.com/hibiken/asynq"
)

const (
	TypeGenerateVideo = "video:generate"
)

type TaskPayload struct {
	TaskID string `json:"task_id"`
	// 生成凭证按请求传入，只进队列载荷，不落库
	APIKey   string `json:"api_key"`
	PiAPIKey string `json:"pi_api_key,omitempty"`
}

var QueueClient *asynq.Client

// InitQueue 初始化
func InitQueue() {
	QueueClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})
}

// EnqueueGenerateVideo 把一次完整的视频生成运行入队。
// MaxRetry 为 0：流水线对失败不做任何自动重试，失败即终态。
func EnqueueGenerateVideo(taskID, apiKey, piAPIKey string) error {
	payload, err := json.Marshal(TaskPayload{TaskID: taskID, APIKey: apiKey, PiAPIKey: piAPIKey})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeGenerateVideo, payload,
		asynq.MaxRetry(0),             // 不重试：外部 API 调用不保证幂等
		asynq.Timeout(30*time.Minute), // 多阶段外部调用 + 编码，预留较长超时
		asynq.Retention(24*time.Hour), // 任务结果在 Redis 保留时间
	)

	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	log.Printf("[Queue] Task Enqueued: ID=%s, TaskID=%s", taskID, info.ID)
	return nil
}
