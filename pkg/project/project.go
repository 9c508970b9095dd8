// Package project loads the serialized scene container: stage settings,
// global variables, and one object type per entry with its costumes,
// sounds, starting placement, and block program source. Only block source
// is persisted; compiled handlers are always rebuilt from it.
package project

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zurustar/blockstage/pkg/block"
)

// Stage holds the scene dimensions in pixels.
type Stage struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ObjectDecl declares one object type and its initial placement.
type ObjectDecl struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Costumes  []string       `json:"costumes,omitempty"`
	Sounds    []string       `json:"sounds,omitempty"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Variables map[string]any `json:"variables,omitempty"`
	Scripts   []*block.Node  `json:"scripts"`
}

// Program returns the object's block program.
func (o *ObjectDecl) Program() *block.Program {
	return &block.Program{Scripts: o.Scripts}
}

// Project is a complete serialized scene.
type Project struct {
	Name    string         `json:"name"`
	Stage   Stage          `json:"stage"`
	Globals map[string]any `json:"globals,omitempty"`
	Objects []*ObjectDecl  `json:"objects"`
}

// DefaultStage is used when a project omits stage dimensions.
var DefaultStage = Stage{Width: 640, Height: 480}

// Load reads and parses a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a serialized project. Legacy exports are Shift-JIS
// encoded, so invalid UTF-8 input is converted before decoding.
func Parse(data []byte) (*Project, error) {
	if !utf8.Valid(data) {
		data = convertToUTF8(data)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Stage.Width <= 0 || p.Stage.Height <= 0 {
		p.Stage = DefaultStage
	}
	seen := make(map[string]bool, len(p.Objects))
	for _, obj := range p.Objects {
		if obj.ID == "" {
			return nil, fmt.Errorf("object %q has no id", obj.Name)
		}
		if seen[obj.ID] {
			return nil, fmt.Errorf("duplicate object id %q", obj.ID)
		}
		seen[obj.ID] = true
		if obj.Name == "" {
			obj.Name = obj.ID
		}
	}
	return &p, nil
}

func convertToUTF8(data []byte) []byte {
	decoder := japanese.ShiftJIS.NewDecoder()
	reader := transform.NewReader(strings.NewReader(string(data)), decoder)
	converted, err := io.ReadAll(reader)
	if err != nil {
		return data
	}
	return converted
}
