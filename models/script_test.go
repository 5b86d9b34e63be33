package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func validScript() *Script {
	return &Script{
		Title: "O Sono Roubado",
		Scenes: []Scene{
			{Number: 1, Description: "stick-figure deitado", Text: "Você dorme menos do que pensa."},
			{Number: 2, Description: "relógio derretendo", Text: "O cérebro cobra a dívida."},
			{Number: 3, Description: "neurônios apagando", Text: "E cobra com juros."},
		},
	}
}

func TestScriptValidateOK(t *testing.T) {
	if err := validScript().Validate(); err != nil {
		t.Fatalf("valid script rejected: %v", err)
	}
}

func TestScriptValidateRejects(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*Script)
		wantMsg string
	}{
		"no scenes": {
			mutate:  func(s *Script) { s.Scenes = nil },
			wantMsg: "no scenes",
		},
		"missing title": {
			mutate:  func(s *Script) { s.Title = "   " },
			wantMsg: "missing title",
		},
		"empty description": {
			mutate:  func(s *Script) { s.Scenes[1].Description = "" },
			wantMsg: "empty description",
		},
		"empty narration": {
			mutate:  func(s *Script) { s.Scenes[2].Text = "  " },
			wantMsg: "empty narration",
		},
		"duplicate number": {
			mutate:  func(s *Script) { s.Scenes[2].Number = 2 },
			wantMsg: "duplicate scene number",
		},
		"gap in numbers": {
			mutate:  func(s *Script) { s.Scenes[2].Number = 5 },
			wantMsg: "not contiguous",
		},
		"non-positive number": {
			mutate:  func(s *Script) { s.Scenes[0].Number = 0 },
			wantMsg: "non-positive",
		},
		"starts at two": {
			mutate: func(s *Script) {
				s.Scenes[0].Number = 2
				s.Scenes[1].Number = 3
				s.Scenes[2].Number = 4
			},
			wantMsg: "missing 1",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := validScript()
			tc.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestScriptJSONKeys(t *testing.T) {
	payload := `{
		"titulo": "Sussurros do Sono",
		"cenas": [
			{"numero": 2, "descricao": "cena dois", "texto": "fala dois"},
			{"numero": 1, "descricao": "cena um", "texto": "fala um"}
		]
	}`
	var s Script
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Title != "Sussurros do Sono" {
		t.Fatalf("title = %q", s.Title)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ordered := s.OrderedScenes()
	if ordered[0].Number != 1 || ordered[1].Number != 2 {
		t.Fatalf("OrderedScenes not sorted by number: %+v", ordered)
	}
	// 原切片顺序不被修改
	if s.Scenes[0].Number != 2 {
		t.Fatalf("OrderedScenes mutated the script: %+v", s.Scenes)
	}
}
