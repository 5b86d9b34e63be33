package service

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"PromptToVideo-server/models"
)

// ProjectPackager 把全部分镜素材加上可读文字稿打包成 zip，供外部剪辑软件（CapCut 等）使用。
// 打包前先整体校验素材齐全：这是对前序阶段产物完整性的集成检查，缺任何一件都不落盘压缩包。
type ProjectPackager struct{}

func NewProjectPackager() *ProjectPackager {
	return &ProjectPackager{}
}

// Package 打包素材，返回压缩包路径
func (p *ProjectPackager) Package(ws *Workspace, script *models.Script) (string, error) {
	log.Printf("[package] 项目 %s: 打包剪辑素材...", ws.ProjectID)

	scenes := script.OrderedScenes()

	// 先验证所有被脚本引用的产物都存在，再动手复制
	for _, scene := range scenes {
		for _, path := range []string{ws.ImagePath(scene.Number), ws.AudioPath(scene.Number)} {
			if _, err := os.Stat(path); err != nil {
				return "", &ArtifactError{Path: path, Err: err}
			}
		}
	}

	if err := os.MkdirAll(ws.PackageDir, 0755); err != nil {
		return "", &ArtifactError{Path: ws.PackageDir, Err: err}
	}

	for _, scene := range scenes {
		for _, src := range []string{ws.ImagePath(scene.Number), ws.AudioPath(scene.Number)} {
			dst := filepath.Join(ws.PackageDir, filepath.Base(src))
			if err := copyFile(src, dst); err != nil {
				return "", &ArtifactError{Path: src, Err: err}
			}
		}
	}

	if err := os.WriteFile(ws.TranscriptPath(), []byte(renderTranscript(script)), 0644); err != nil {
		return "", &ArtifactError{Path: ws.TranscriptPath(), Err: err}
	}

	archivePath := ws.ArchivePath(SlugifyTitle(script.Title))
	if err := zipDir(ws.PackageDir, archivePath); err != nil {
		// 避免留下半成品压缩包
		os.Remove(archivePath)
		return "", err
	}

	log.Printf("[package] 项目 %s: 素材包已生成: %s", ws.ProjectID, archivePath)
	return archivePath, nil
}

// renderTranscript 文字稿：标题 + 按编号排列的每个分镜的画面描述与旁白
func renderTranscript(script *models.Script) string {
	out := fmt.Sprintf("TÍTULO: %s\n\n", script.Title)
	for _, scene := range script.OrderedScenes() {
		out += fmt.Sprintf("CENA %d:\n", scene.Number)
		out += fmt.Sprintf("Descrição: %s\n", scene.Description)
		out += fmt.Sprintf("Texto: %s\n\n", scene.Text)
	}
	return out
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// zipDir 把目录下的直接文件压缩为一个 zip（素材目录没有嵌套结构）
func zipDir(dir, archivePath string) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return &ArtifactError{Path: archivePath, Err: err}
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entries, err := os.ReadDir(dir)
	if err != nil {
		zw.Close()
		return &ArtifactError{Path: dir, Err: err}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(dir, entry.Name())
		w, err := zw.Create(entry.Name())
		if err != nil {
			zw.Close()
			return &ArtifactError{Path: src, Err: err}
		}
		in, err := os.Open(src)
		if err != nil {
			zw.Close()
			return &ArtifactError{Path: src, Err: err}
		}
		if _, err := io.Copy(w, in); err != nil {
			in.Close()
			zw.Close()
			return &ArtifactError{Path: src, Err: err}
		}
		in.Close()
	}
	if err := zw.Close(); err != nil {
		return &ArtifactError{Path: archivePath, Err: err}
	}
	return nil
}
