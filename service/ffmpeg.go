package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"PromptToVideo-server/models"
)

// SceneVideoCompositor 把每个分镜渲染成"静态图 + 旁白"的视频片段，再无损拼接成片。
// 逐分镜编码避免了单次渲染中按可变时间戳精确切换图片；拼接用流拷贝避免二次全量编码。
type SceneVideoCompositor struct {
	FFmpeg  string
	FFprobe string
}

func NewSceneVideoCompositor() *SceneVideoCompositor {
	return &SceneVideoCompositor{FFmpeg: "ffmpeg", FFprobe: "ffprobe"}
}

// Composite 合成成片，返回成片路径与每个分镜的实测音频时长（秒）。
// 图片展示时长以实测音频时长为准：旁白驱动节奏，而不是固定计时。
func (c *SceneVideoCompositor) Composite(ctx context.Context, ws *Workspace, script *models.Script) (string, map[int]float64, error) {
	log.Printf("[video] 项目 %s: 开始合成视频...", ws.ProjectID)

	durations := make(map[int]float64, len(script.Scenes))
	var listLines []string

	for _, scene := range script.OrderedScenes() {
		audioPath := ws.AudioPath(scene.Number)
		duration, err := c.ProbeDuration(ctx, audioPath)
		if err != nil {
			return "", nil, fmt.Errorf("scene %d: %w", scene.Number, err)
		}
		durations[scene.Number] = duration

		segmentPath := ws.SegmentPath(scene.Number)
		args := segmentArgs(ws.ImagePath(scene.Number), audioPath, duration, segmentPath)
		cmd := exec.CommandContext(ctx, c.FFmpeg, args...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return "", nil, fmt.Errorf("scene %d: %w", scene.Number,
				&MediaToolError{Tool: "ffmpeg", Output: tail(string(out), 800), Err: err})
		}

		listLines = append(listLines, fmt.Sprintf("file '%s'", segmentPath))
		log.Printf("[video] 项目 %s: 分镜 %d 片段完成 (%.2fs)", ws.ProjectID, scene.Number, duration)
	}

	listPath := ws.ConcatListPath()
	if err := os.WriteFile(listPath, []byte(strings.Join(listLines, "\n")+"\n"), 0644); err != nil {
		return "", nil, &ArtifactError{Path: listPath, Err: err}
	}

	outputPath := ws.VideoPath(SlugifyTitle(script.Title))
	cmd := exec.CommandContext(ctx, c.FFmpeg, concatArgs(listPath, outputPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", nil, &MediaToolError{Tool: "ffmpeg", Output: tail(string(out), 800), Err: err}
	}

	log.Printf("[video] 项目 %s: 成片已生成: %s", ws.ProjectID, outputPath)
	return outputPath, durations, nil
}

// ProbeDuration 用 ffprobe 读取音频可播放时长（秒）
func (c *SceneVideoCompositor) ProbeDuration(ctx context.Context, mediaPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, c.FFprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, &MediaToolError{Tool: "ffprobe", Output: tail(string(out), 800), Err: err}
	}
	s := strings.TrimSpace(string(out))
	duration, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &MediaToolError{Tool: "ffprobe", Output: s, Err: fmt.Errorf("parse duration %q: %w", s, err)}
	}
	return duration, nil
}

// segmentArgs 单分镜片段编码参数：静态图循环到音频时长，libx264 静帧调优 + aac
func segmentArgs(imagePath, audioPath string, duration float64, outPath string) []string {
	return []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-t", fmtSeconds(duration),
		outPath,
	}
}

// concatArgs 清单拼接参数：流拷贝，不重编码
func concatArgs(listPath, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
