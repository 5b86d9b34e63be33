package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace 单次生成运行独占的目录树。
// 产物文件名全部由 (项目 ID, 分镜编号) 确定性推导，这是跨阶段关联产物的核心约定。
// 根目录在运行开始时创建一次；scenes / audio / capcut_project 子目录由各阶段按需创建，
// 中间文件无论成败都保留，便于排查。
type Workspace struct {
	ProjectID  string
	Root       string // <workspace-root>/<project-id>
	ScenesDir  string
	AudioDir   string
	PackageDir string
	OutputDir  string // <output-root>/<project-id>，最终成片与压缩包
}

// NewWorkspace 创建运行工作区：只建运行根目录与输出目录，阶段子目录延后创建
func NewWorkspace(workspaceRoot, outputRoot, projectID string) (*Workspace, error) {
	w := &Workspace{
		ProjectID: projectID,
		Root:      filepath.Join(workspaceRoot, projectID),
		OutputDir: filepath.Join(outputRoot, projectID),
	}
	w.ScenesDir = filepath.Join(w.Root, "scenes")
	w.AudioDir = filepath.Join(w.Root, "audio")
	w.PackageDir = filepath.Join(w.Root, "capcut_project")

	for _, dir := range []string{w.Root, w.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &ArtifactError{Path: dir, Err: err}
		}
	}
	return w, nil
}

func (w *Workspace) ScriptPath() string {
	return filepath.Join(w.Root, "script.json")
}

func (w *Workspace) ImagePath(n int) string {
	return filepath.Join(w.ScenesDir, fmt.Sprintf("scene_%d.png", n))
}

func (w *Workspace) AudioPath(n int) string {
	return filepath.Join(w.AudioDir, fmt.Sprintf("audio_%d.mp3", n))
}

// SegmentPath 单个分镜的中间视频片段
func (w *Workspace) SegmentPath(n int) string {
	return filepath.Join(w.Root, fmt.Sprintf("temp_scene_%d.mp4", n))
}

// ConcatListPath ffmpeg concat 清单
func (w *Workspace) ConcatListPath() string {
	return filepath.Join(w.Root, "scenes_list.txt")
}

func (w *Workspace) VideoPath(slug string) string {
	return filepath.Join(w.OutputDir, slug+".mp4")
}

func (w *Workspace) ArchivePath(slug string) string {
	return filepath.Join(w.OutputDir, slug+"_projeto.zip")
}

func (w *Workspace) TranscriptPath() string {
	return filepath.Join(w.PackageDir, "roteiro.txt")
}

// SlugifyTitle 把脚本标题转成文件系统安全的文件名：
// 小写、空格转下划线，只保留 ASCII 字母数字和 . _ -（与原始实现的 secure_filename 行为对齐）
func SlugifyTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "_")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "video"
	}
	return out
}
