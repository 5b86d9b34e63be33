package service

import (
	"bytes"
	"context"
	"encoding/base64"
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

// ImageBackend 文生图后端选择（显式传入，不在渲染器内部猜测）
type ImageBackend string

const (
	// BackendGetimg 备用服务商：同步返回内联 base64 图像
	BackendGetimg ImageBackend = "getimg"
	// BackendDalle 主服务商兜底：返回 URL，需要二次拉取
	BackendDalle ImageBackend = "dalle"
)

// ChooseImageBackend 按是否配置了备用服务商凭证选择后端
func ChooseImageBackend(creds Credentials) ImageBackend {
	if creds.PiAPIKey != "" {
		return BackendGetimg
	}
	return BackendDalle
}

// 固定的画面风格指令：紫色火柴人、纯黑背景、无文字
const imageStyleTemplate = `Imagem minimalista no estilo "Sussurros Clínicos": %s.
Estilo: stick-figure lilás sobre fundo totalmente preto, linhas finas neon,
estética médica minimalista, sem texto.`

const imageNegativePrompt = "texto, palavras, letras, cores vibrantes, fundo colorido"

// SceneImageRenderer 逐分镜调用文生图后端，按编号写出 scene_<n>.png
type SceneImageRenderer struct {
	GetimgEndpoint string
	DalleEndpoint  string
	HTTPClient     *http.Client
	Delay          time.Duration // 每次外部调用后的固定间隔，规避服务商限流
}

func NewSceneImageRenderer() *SceneImageRenderer {
	return &SceneImageRenderer{
		GetimgEndpoint: config.AppConfig.AI.ImageAPI,
		DalleEndpoint:  config.AppConfig.AI.ImageFallbackAPI,
		HTTPClient:     &http.Client{Timeout: 180 * time.Second},
		Delay:          time.Second,
	}
}

// Render 为每个分镜生成一张图。任一分镜失败即中止，已写出的图保留在磁盘上。
func (r *SceneImageRenderer) Render(ctx context.Context, ws *Workspace, script *models.Script, backend ImageBackend, creds Credentials, highQuality bool) error {
	log.Printf("[image] 项目 %s: 使用后端 %s 生成 %d 张分镜图...", ws.ProjectID, backend, len(script.Scenes))

	if err := os.MkdirAll(ws.ScenesDir, 0755); err != nil {
		return &ArtifactError{Path: ws.ScenesDir, Err: err}
	}

	for _, scene := range script.OrderedScenes() {
		imagePrompt := fmt.Sprintf(imageStyleTemplate, scene.Description)

		var imageBytes []byte
		var err error
		switch backend {
		case BackendGetimg:
			imageBytes, err = r.renderGetimg(ctx, imagePrompt, creds.PiAPIKey, highQuality)
		default:
			imageBytes, err = r.renderDalle(ctx, imagePrompt, creds.APIKey, highQuality)
		}
		if err != nil {
			return fmt.Errorf("scene %d: %w", scene.Number, err)
		}

		imagePath := ws.ImagePath(scene.Number)
		if err := os.WriteFile(imagePath, imageBytes, 0644); err != nil {
			return &ArtifactError{Path: imagePath, Err: err}
		}
		log.Printf("[image] 项目 %s: 分镜 %d 图片已生成", ws.ProjectID, scene.Number)

		time.Sleep(r.Delay)
	}

	log.Printf("[image] 项目 %s: 全部分镜图生成完毕", ws.ProjectID)
	return nil
}

type getimgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
}

func (r *SceneImageRenderer) renderGetimg(ctx context.Context, prompt, apiKey string, highQuality bool) ([]byte, error) {
	steps := 20
	if highQuality {
		steps = 30
	}
	reqBody := getimgRequest{
		Prompt:         prompt,
		NegativePrompt: imageNegativePrompt,
		Width:          1024,
		Height:         576, // 16:9
		Steps:          steps,
		GuidanceScale:  7.5,
	}

	respBytes, status, err := r.postJSON(ctx, r.GetimgEndpoint, apiKey, reqBody)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &UpstreamError{Service: "image", StatusCode: status, Body: truncate(string(respBytes), 500)}
	}

	var parsed struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return nil, fmt.Errorf("parse image response: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(parsed.Image)
	if err != nil {
		return nil, fmt.Errorf("decode inline image: %w", err)
	}
	return data, nil
}

type dalleRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	N       int    `json:"n"`
}

func (r *SceneImageRenderer) renderDalle(ctx context.Context, prompt, apiKey string, highQuality bool) ([]byte, error) {
	quality := "standard"
	if highQuality {
		quality = "hd"
	}
	reqBody := dalleRequest{
		Model:   "dall-e-3",
		Prompt:  prompt,
		Size:    "1024x1792",
		Quality: quality,
		N:       1,
	}

	respBytes, status, err := r.postJSON(ctx, r.DalleEndpoint, apiKey, reqBody)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &UpstreamError{Service: "image", StatusCode: status, Body: truncate(string(respBytes), 500)}
	}

	var parsed struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return nil, fmt.Errorf("parse image response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return nil, fmt.Errorf("image response missing url")
	}

	// 二次拉取图像字节
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.Data[0].URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch generated image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Service: "image-fetch", StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func (r *SceneImageRenderer) postJSON(ctx context.Context, endpoint, apiKey string, body interface{}) ([]byte, int, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return respBytes, resp.StatusCode, nil
}
