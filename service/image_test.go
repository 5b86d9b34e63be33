package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"PromptToVideo-server/models"
)

func twoSceneScript() *models.Script {
	return &models.Script{
		Title: "Teste",
		Scenes: []models.Scene{
			{Number: 1, Description: "cena um", Text: "fala um"},
			{Number: 2, Description: "cena dois", Text: "fala dois"},
		},
	}
}

func TestChooseImageBackend(t *testing.T) {
	if got := ChooseImageBackend(Credentials{APIKey: "a"}); got != BackendDalle {
		t.Fatalf("no secondary credential: got %s, want %s", got, BackendDalle)
	}
	if got := ChooseImageBackend(Credentials{APIKey: "a", PiAPIKey: "b"}); got != BackendGetimg {
		t.Fatalf("secondary credential present: got %s, want %s", got, BackendGetimg)
	}
}

func TestRenderFallbackBackendOnly(t *testing.T) {
	getimgCalls := 0
	getimgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		getimgCalls++
		w.Write([]byte(`{"image":""}`))
	}))
	defer getimgSrv.Close()

	fetchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PNG" + r.URL.Path))
	}))
	defer fetchSrv.Close()

	dalleCalls := 0
	dalleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dalleCalls++
		var req dalleRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "dall-e-3" || req.Quality != "standard" {
			t.Errorf("unexpected dalle request: %+v", req)
		}
		fmt.Fprintf(w, `{"data":[{"url":"%s/gen-%d"}]}`, fetchSrv.URL, dalleCalls)
	}))
	defer dalleSrv.Close()

	ws, _ := NewWorkspace(t.TempDir(), t.TempDir(), "p1")
	r := &SceneImageRenderer{
		GetimgEndpoint: getimgSrv.URL,
		DalleEndpoint:  dalleSrv.URL,
		HTTPClient:     http.DefaultClient,
		Delay:          0,
	}

	creds := Credentials{APIKey: "main-key"} // 无备用凭证
	backend := ChooseImageBackend(creds)
	if err := r.Render(context.Background(), ws, twoSceneScript(), backend, creds, false); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if getimgCalls != 0 {
		t.Fatalf("secondary backend invoked %d times, want 0", getimgCalls)
	}
	if dalleCalls != 2 {
		t.Fatalf("fallback backend invoked %d times, want 2", dalleCalls)
	}
	for n := 1; n <= 2; n++ {
		b, err := os.ReadFile(ws.ImagePath(n))
		if err != nil {
			t.Fatalf("scene %d image missing: %v", n, err)
		}
		if want := fmt.Sprintf("PNG/gen-%d", n); string(b) != want {
			t.Fatalf("scene %d image = %q, want %q (ordinal order broken?)", n, b, want)
		}
	}
}

func TestRenderGetimgInlineBytes(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}
	getimgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req getimgRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Steps != 30 {
			t.Errorf("high quality steps = %d, want 30", req.Steps)
		}
		if req.Width != 1024 || req.Height != 576 {
			t.Errorf("resolution = %dx%d", req.Width, req.Height)
		}
		if req.NegativePrompt == "" {
			t.Error("negative prompt missing")
		}
		fmt.Fprintf(w, `{"image":"%s"}`, base64.StdEncoding.EncodeToString(raw))
	}))
	defer getimgSrv.Close()

	ws, _ := NewWorkspace(t.TempDir(), t.TempDir(), "p1")
	r := &SceneImageRenderer{
		GetimgEndpoint: getimgSrv.URL,
		DalleEndpoint:  "http://invalid.invalid",
		HTTPClient:     http.DefaultClient,
		Delay:          0,
	}

	creds := Credentials{APIKey: "main", PiAPIKey: "secondary"}
	script := &models.Script{Title: "T", Scenes: []models.Scene{{Number: 1, Description: "d", Text: "t"}}}
	if err := r.Render(context.Background(), ws, script, ChooseImageBackend(creds), creds, true); err != nil {
		t.Fatalf("Render: %v", err)
	}

	b, err := os.ReadFile(ws.ImagePath(1))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != string(raw) {
		t.Fatalf("decoded bytes mismatch: %v", b)
	}
}

func TestRenderAbortsOnUpstreamFailure(t *testing.T) {
	calls := 0
	fetchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PNG"))
	}))
	defer fetchSrv.Close()

	dalleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"data":[{"url":"%s/ok"}]}`, fetchSrv.URL)
	}))
	defer dalleSrv.Close()

	ws, _ := NewWorkspace(t.TempDir(), t.TempDir(), "p1")
	r := &SceneImageRenderer{
		GetimgEndpoint: "http://invalid.invalid",
		DalleEndpoint:  dalleSrv.URL,
		HTTPClient:     http.DefaultClient,
		Delay:          0,
	}

	err := r.Render(context.Background(), ws, twoSceneScript(), BackendDalle, Credentials{APIKey: "k"}, false)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want abort right after scene 2 failure", calls)
	}
	// 第一张图保留在磁盘上，不做清理
	if _, err := os.Stat(ws.ImagePath(1)); err != nil {
		t.Fatalf("scene 1 image should remain: %v", err)
	}
	if _, err := os.Stat(ws.ImagePath(2)); !os.IsNotExist(err) {
		t.Fatal("scene 2 image should not exist")
	}
}
