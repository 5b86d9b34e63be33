package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"PromptToVideo-server/config"
	"PromptToVideo-server/models"
)

// SceneNarrator 逐分镜调用语音合成，按编号写出 audio_<n>.mp3。
// 声线固定为 onyx（低沉男声），模型档位由画质开关决定。
type SceneNarrator struct {
	Endpoint   string
	Voice      string
	HTTPClient *http.Client
	Delay      time.Duration // 与图片生成一致的固定限流间隔
}

func NewSceneNarrator() *SceneNarrator {
	return &SceneNarrator{
		Endpoint:   config.AppConfig.AI.VoiceAPI,
		Voice:      "onyx",
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		Delay:      time.Second,
	}
}

type ttsRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Narrate 为每个分镜生成旁白音频。任一分镜失败即中止。
func (n *SceneNarrator) Narrate(ctx context.Context, ws *Workspace, script *models.Script, apiKey string, highQuality bool) error {
	log.Printf("[tts] 项目 %s: 生成 %d 段旁白音频...", ws.ProjectID, len(script.Scenes))

	if err := os.MkdirAll(ws.AudioDir, 0755); err != nil {
		return &ArtifactError{Path: ws.AudioDir, Err: err}
	}

	model := "tts-1"
	if highQuality {
		model = "tts-1-hd"
	}

	for _, scene := range script.OrderedScenes() {
		reqBody := ttsRequest{
			Model:          model,
			Input:          scene.Text,
			Voice:          n.Voice,
			ResponseFormat: "mp3",
		}
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal tts request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, bytes.NewReader(jsonBody))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+apiKey)

		resp, err := n.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("scene %d tts request: %w", scene.Number, err)
		}
		audioBytes, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("scene %d: %w", scene.Number,
				&UpstreamError{Service: "tts", StatusCode: resp.StatusCode, Body: truncate(string(audioBytes), 500)})
		}
		if readErr != nil {
			return fmt.Errorf("scene %d read audio: %w", scene.Number, readErr)
		}

		audioPath := ws.AudioPath(scene.Number)
		if err := os.WriteFile(audioPath, audioBytes, 0644); err != nil {
			return &ArtifactError{Path: audioPath, Err: err}
		}
		log.Printf("[tts] 项目 %s: 分镜 %d 音频已生成", ws.ProjectID, scene.Number)

		time.Sleep(n.Delay)
	}

	log.Printf("[tts] 项目 %s: 全部旁白音频生成完毕", ws.ProjectID)
	return nil
}
