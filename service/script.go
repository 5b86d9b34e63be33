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
	"strings"
	"time"

	"PromptToVideo-server/config"
	"PromptToVideo-server/models"
)

// 固定提示词模板（“Sussurros Clínicos” 风格），约束旁白总长不超过 60 秒。
// 该时长只是给模型的内容指令，本地不做强制校验。
const scriptPromptTemplate = `Crie um roteiro no estilo "Sussurros Clínicos" sobre %s em formato JSON.
O roteiro deve ter no máximo 60 segundos quando narrado e seguir esta estrutura:

{
  "titulo": "Título do Vídeo",
  "cenas": [
    {
      "numero": 1,
      "descricao": "Descrição visual detalhada da cena (stick-figure lilás, fundo preto)",
      "texto": "Texto exato para narração em tom misterioso e científico"
    },
    {
      "numero": 2,
      "descricao": "...",
      "texto": "..."
    }
  ]
}

O estilo deve ser misterioso, com linguagem científica mas acessível, e tom levemente sombrio.
Retorne APENAS o JSON, sem texto adicional.`

// ScriptSynthesizer 调用文本生成服务产出分镜脚本并校验落盘
type ScriptSynthesizer struct {
	Endpoint   string
	Model      string
	HTTPClient *http.Client
}

func NewScriptSynthesizer() *ScriptSynthesizer {
	return &ScriptSynthesizer{
		Endpoint:   config.AppConfig.AI.TextAPI,
		Model:      "gpt-4o",
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Synthesize 生成脚本：单次请求 -> 剥掉至多一层代码围栏 -> 解析 -> 校验 -> 存入工作区
func (s *ScriptSynthesizer) Synthesize(ctx context.Context, ws *Workspace, prompt, apiKey string, highQuality bool) (*models.Script, error) {
	log.Printf("[script] 项目 %s: 生成分镜脚本...", ws.ProjectID)

	reqBody := chatRequest{
		Model:       s.Model,
		Messages:    []chatMessage{{Role: "user", Content: fmt.Sprintf(scriptPromptTemplate, prompt)}},
		Temperature: 0.7,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("script request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Service: "script", StatusCode: resp.StatusCode, Body: truncate(string(respBytes), 500)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return nil, &ScriptFormatError{Reason: "unreadable completion payload", Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &ScriptFormatError{Reason: "completion has no choices"}
	}

	content := extractJSON(chatResp.Choices[0].Message.Content)

	var script models.Script
	if err := json.Unmarshal([]byte(content), &script); err != nil {
		return nil, &ScriptFormatError{Reason: "payload is not valid JSON", Err: err}
	}
	if err := script.Validate(); err != nil {
		return nil, &ScriptFormatError{Reason: err.Error()}
	}

	// 脚本原样持久化，供下游阶段与人工排查使用
	pretty, err := json.MarshalIndent(&script, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal script: %w", err)
	}
	if err := os.WriteFile(ws.ScriptPath(), pretty, 0644); err != nil {
		return nil, &ArtifactError{Path: ws.ScriptPath(), Err: err}
	}

	log.Printf("[script] 项目 %s: 脚本生成成功: %s (%d 个分镜)", ws.ProjectID, script.Title, len(script.Scenes))
	return &script, nil
}

// extractJSON 剥掉响应里至多一层 markdown 代码围栏（```json 或裸 ```）
func extractJSON(content string) string {
	if i := strings.Index(content, "```json"); i >= 0 {
		rest := content[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(content, "```"); i >= 0 {
		rest := content[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
