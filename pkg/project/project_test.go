package project

import (
	"io"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const sampleProject = `{
  "name": "demo",
  "stage": {"width": 800, "height": 600},
  "globals": {"score": 0, "title": "demo"},
  "objects": [
    {
      "id": "cat",
      "name": "Cat",
      "costumes": ["cat-a", "cat-b"],
      "x": 100,
      "y": 120,
      "variables": {"speed": 4},
      "scripts": [
        {"id": "s1", "type": "whenGameStart", "next": {"id": "s2", "type": "show"}}
      ]
    },
    {"id": "wall", "scripts": []}
  ]
}`

func TestParseProject(t *testing.T) {
	p, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Name != "demo" {
		t.Errorf("Name = %q, want demo", p.Name)
	}
	if p.Stage.Width != 800 || p.Stage.Height != 600 {
		t.Errorf("Stage = %+v, want 800x600", p.Stage)
	}
	if len(p.Objects) != 2 {
		t.Fatalf("%d objects, want 2", len(p.Objects))
	}

	cat := p.Objects[0]
	if cat.Name != "Cat" || cat.X != 100 || cat.Y != 120 {
		t.Errorf("cat = %+v, wrong placement or name", cat)
	}
	if v, ok := cat.Variables["speed"]; !ok || v != 4.0 {
		t.Errorf("cat speed = %v, want 4", v)
	}
	prog := cat.Program()
	if len(prog.Scripts) != 1 || prog.Scripts[0].Next == nil {
		t.Error("cat program lost its script chain")
	}

	// A missing name falls back to the id.
	if p.Objects[1].Name != "wall" {
		t.Errorf("wall name = %q, want the id fallback", p.Objects[1].Name)
	}
}

func TestParseDefaultsStageWhenOmitted(t *testing.T) {
	p, err := Parse([]byte(`{"name": "x", "objects": []}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Stage != DefaultStage {
		t.Errorf("Stage = %+v, want the default %+v", p.Stage, DefaultStage)
	}
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "object without id",
			src:  `{"objects": [{"name": "ghost", "scripts": []}]}`,
		},
		{
			name: "duplicate object ids",
			src:  `{"objects": [{"id": "a", "scripts": []}, {"id": "a", "scripts": []}]}`,
		},
		{
			name: "malformed json",
			src:  `{"objects": [`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); err == nil {
				t.Error("Parse must fail")
			}
		})
	}
}

func TestParseShiftJISFallback(t *testing.T) {
	src := `{"name": "ねこのぼうけん", "objects": [{"id": "cat", "name": "ねこ", "scripts": []}]}`

	encoder := japanese.ShiftJIS.NewEncoder()
	reader := transform.NewReader(strings.NewReader(src), encoder)
	sjis, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	p, err := Parse(sjis)
	if err != nil {
		t.Fatalf("Parse Shift-JIS input: %v", err)
	}
	if p.Name != "ねこのぼうけん" {
		t.Errorf("Name = %q, want the decoded Japanese title", p.Name)
	}
	if p.Objects[0].Name != "ねこ" {
		t.Errorf("object name = %q, want ねこ", p.Objects[0].Name)
	}
}
