package service

import (
	"context"
	"fmt"
	"log"

	"PromptToVideo-server/models"
)

// 流水线阶段名（终态失败会携带失败阶段）
const (
	StageScript  = "script"
	StageImages  = "images"
	StageAudio   = "audio"
	StageVideo   = "video"
	StagePackage = "package"
)

// Credentials 生成服务凭证：按请求传入，不走进程环境（多租户约定）
type Credentials struct {
	APIKey   string // 主服务商（文本 / 兜底生图 / TTS）
	PiAPIKey string // 备用生图服务商，可为空
}

// 各阶段的窄接口：编排器只依赖能力，不依赖具体实现，便于单测替换
type scriptSynthesizer interface {
	Synthesize(ctx context.Context, ws *Workspace, prompt, apiKey string, highQuality bool) (*models.Script, error)
}

type sceneImageRenderer interface {
	Render(ctx context.Context, ws *Workspace, script *models.Script, backend ImageBackend, creds Credentials, highQuality bool) error
}

type sceneNarrator interface {
	Narrate(ctx context.Context, ws *Workspace, script *models.Script, apiKey string, highQuality bool) error
}

type sceneVideoCompositor interface {
	Composite(ctx context.Context, ws *Workspace, script *models.Script) (string, map[int]float64, error)
}

type projectPackager interface {
	Package(ws *Workspace, script *models.Script) (string, error)
}

// StageError 终态失败：失败阶段 + 根因
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PipelineResult 终态成功：标题与可解析的产物位置
type PipelineResult struct {
	ProjectID   string
	Title       string
	VideoPath   string
	ArchivePath string
	Script      *models.Script
	Durations   map[int]float64 // 分镜编号 -> 实测音频时长（秒）
}

// Generator 一次生成运行的编排器：独占一个工作区，顺序推进四个阶段。
// 状态机严格线性、快速失败：任一阶段出错立即终止，不重试、不清理已产出的中间文件。
type Generator struct {
	ws          *Workspace
	prompt      string
	creds       Credentials
	highQuality bool
	status      string

	scripter scriptSynthesizer
	renderer sceneImageRenderer
	narrator sceneNarrator
	composer sceneVideoCompositor
	packager projectPackager

	// OnStage 状态机每次推进后回调（用于把进度镜像到 DB / WebSocket）
	OnStage func(status string)
	// OnScript 脚本校验通过后回调（用于把分镜落库）
	OnScript func(script *models.Script)
}

// NewGenerator 装配生产实现
func NewGenerator(ws *Workspace, prompt string, creds Credentials, highQuality bool) *Generator {
	return &Generator{
		ws:          ws,
		prompt:      prompt,
		creds:       creds,
		highQuality: highQuality,
		status:      models.ProjectStatusCreated,
		scripter:    NewScriptSynthesizer(),
		renderer:    NewSceneImageRenderer(),
		narrator:    NewSceneNarrator(),
		composer:    NewSceneVideoCompositor(),
		packager:    NewProjectPackager(),
	}
}

// Status 当前状态机状态
func (g *Generator) Status() string {
	return g.status
}

// Run 执行完整流水线：脚本 -> 分镜图 -> 旁白 -> 合成 -> 打包
func (g *Generator) Run(ctx context.Context) (*PipelineResult, error) {
	log.Printf("[pipeline] 项目 %s: 开始生成 (high_quality=%v)", g.ws.ProjectID, g.highQuality)

	script, err := g.scripter.Synthesize(ctx, g.ws, g.prompt, g.creds.APIKey, g.highQuality)
	if err != nil {
		return nil, g.fail(StageScript, err)
	}
	if g.OnScript != nil {
		g.OnScript(script)
	}
	g.advance(models.ProjectStatusScriptReady)

	backend := ChooseImageBackend(g.creds)
	if err := g.renderer.Render(ctx, g.ws, script, backend, g.creds, g.highQuality); err != nil {
		return nil, g.fail(StageImages, err)
	}
	g.advance(models.ProjectStatusImagesReady)

	if err := g.narrator.Narrate(ctx, g.ws, script, g.creds.APIKey, g.highQuality); err != nil {
		return nil, g.fail(StageAudio, err)
	}
	g.advance(models.ProjectStatusAudioReady)

	videoPath, durations, err := g.composer.Composite(ctx, g.ws, script)
	if err != nil {
		return nil, g.fail(StageVideo, err)
	}
	g.advance(models.ProjectStatusVideoReady)

	archivePath, err := g.packager.Package(g.ws, script)
	if err != nil {
		return nil, g.fail(StagePackage, err)
	}
	g.advance(models.ProjectStatusPackaged)

	log.Printf("[pipeline] 项目 %s: 生成完成: %s", g.ws.ProjectID, script.Title)
	return &PipelineResult{
		ProjectID:   g.ws.ProjectID,
		Title:       script.Title,
		VideoPath:   videoPath,
		ArchivePath: archivePath,
		Script:      script,
		Durations:   durations,
	}, nil
}

func (g *Generator) advance(status string) {
	g.status = status
	if g.OnStage != nil {
		g.OnStage(status)
	}
}

func (g *Generator) fail(stage string, err error) error {
	g.status = models.ProjectStatusFailed
	log.Printf("[pipeline] 项目 %s: 阶段 %s 失败: %v", g.ws.ProjectID, stage, err)
	return &StageError{Stage: stage, Err: err}
}
