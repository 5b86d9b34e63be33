package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestNarrateWritesSceneAudio(t *testing.T) {
	var usedModels []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ttsRequest
		json.NewDecoder(r.Body).Decode(&req)
		usedModels = append(usedModels, req.Model)
		if req.Voice != "onyx" || req.ResponseFormat != "mp3" {
			t.Errorf("unexpected tts request: %+v", req)
		}
		w.Write([]byte("MP3:" + req.Input))
	}))
	defer srv.Close()

	ws, _ := NewWorkspace(t.TempDir(), t.TempDir(), "p1")
	n := &SceneNarrator{Endpoint: srv.URL, Voice: "onyx", HTTPClient: http.DefaultClient, Delay: 0}

	if err := n.Narrate(context.Background(), ws, twoSceneScript(), "k", false); err != nil {
		t.Fatalf("Narrate: %v", err)
	}

	for i, m := range usedModels {
		if m != "tts-1" {
			t.Fatalf("call %d used model %q, want tts-1 for standard quality", i, m)
		}
	}

	b1, err := os.ReadFile(ws.AudioPath(1))
	if err != nil {
		t.Fatal(err)
	}
	if string(b1) != "MP3:fala um" {
		t.Fatalf("audio_1 = %q", b1)
	}
	b2, _ := os.ReadFile(ws.AudioPath(2))
	if string(b2) != "MP3:fala dois" {
		t.Fatalf("audio_2 = %q", b2)
	}
}

func TestNarrateHighQualityModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ttsRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "tts-1-hd" {
			t.Errorf("model = %q, want tts-1-hd", req.Model)
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ws, _ := NewWorkspace(t.TempDir(), t.TempDir(), "p1")
	n := &SceneNarrator{Endpoint: srv.URL, Voice: "onyx", HTTPClient: http.DefaultClient, Delay: 0}
	if err := n.Narrate(context.Background(), ws, twoSceneScript(), "k", true); err != nil {
		t.Fatalf("Narrate: %v", err)
	}
}

func TestNarrateAbortsOnUpstreamFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "quota", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ws, _ := NewWorkspace(t.TempDir(), t.TempDir(), "p1")
	n := &SceneNarrator{Endpoint: srv.URL, Voice: "onyx", HTTPClient: http.DefaultClient, Delay: 0}

	err := n.Narrate(context.Background(), ws, twoSceneScript(), "k", false)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upstream.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d", upstream.StatusCode)
	}
	if _, err := os.Stat(ws.AudioPath(1)); err != nil {
		t.Fatalf("audio 1 should remain on disk: %v", err)
	}
}
