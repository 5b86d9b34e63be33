package service

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSlugifyTitle(t *testing.T) {
	tests := map[string]string{
		"O Sono Roubado":    "o_sono_roubado",
		"  Espaços  ":       "espaos", // 非 ASCII 字符被丢弃
		"Vírus: A Invasão!": "vrus_a_invaso",
		"abc-123.def":       "abc-123.def",
		"...":               "video",
		"":                  "video",
		"UPPER lower":       "upper_lower",
	}

	for in, want := range tests {
		if got := SlugifyTitle(in); got != want {
			t.Fatalf("SlugifyTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewWorkspaceLayout(t *testing.T) {
	tmp := t.TempDir()
	wsRoot := filepath.Join(tmp, "temp")
	outRoot := filepath.Join(tmp, "output")

	ws, err := NewWorkspace(wsRoot, outRoot, "proj-1")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}

	// 创建时只建运行根目录与输出目录
	for _, dir := range []string{ws.Root, ws.OutputDir} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Fatalf("expected dir %s to exist", dir)
		}
	}
	// 阶段子目录延后由各阶段自行创建
	for _, dir := range []string{ws.ScenesDir, ws.AudioDir, ws.PackageDir} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("expected dir %s to not exist yet", dir)
		}
	}
}

func TestWorkspacePathDerivation(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), t.TempDir(), "abc")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}

	if got := filepath.Base(ws.ImagePath(3)); got != "scene_3.png" {
		t.Fatalf("ImagePath(3) base = %q", got)
	}
	if got := filepath.Base(ws.AudioPath(12)); got != "audio_12.mp3" {
		t.Fatalf("AudioPath(12) base = %q", got)
	}
	if got := filepath.Base(ws.SegmentPath(1)); got != "temp_scene_1.mp4" {
		t.Fatalf("SegmentPath(1) base = %q", got)
	}
	if got := filepath.Base(ws.ConcatListPath()); got != "scenes_list.txt" {
		t.Fatalf("ConcatListPath base = %q", got)
	}
	if got := filepath.Base(ws.VideoPath("meu_video")); got != "meu_video.mp4" {
		t.Fatalf("VideoPath base = %q", got)
	}
	if got := filepath.Base(ws.ArchivePath("meu_video")); got != "meu_video_projeto.zip" {
		t.Fatalf("ArchivePath base = %q", got)
	}
	if got := filepath.Base(ws.TranscriptPath()); got != "roteiro.txt" {
		t.Fatalf("TranscriptPath base = %q", got)
	}
}
