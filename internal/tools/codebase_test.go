package tools

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glassbox-io/glassbox/internal/oracle"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func TestFindSymbol(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"parser.go":              "package x\n\nfunc ParseConfig(raw []byte) error {\n\treturn nil\n}\n",
		"handler.py":             "def parse_config(raw):\n    return ParseConfig(raw)\n",
		"types.go":               "package x\n\ntype ParseConfig struct{}\n",
		"node_modules/ignore.js": "function ParseConfig() {}\n",
	})
	c := NewCodebase(root, 500)

	tests := []struct {
		name       string
		searchType string
		wantFiles  []string
	}{
		{"function only", "function", []string{"parser.go"}},
		{"type only", "type", []string{"types.go"}},
		{"any", "", []string{"parser.go", "types.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.FindSymbol("ParseConfig", tt.searchType)
			if err != nil {
				t.Fatalf("FindSymbol: %v", err)
			}
			var files []string
			for _, loc := range result.Locations {
				files = append(files, loc.File)
			}
			if len(files) != len(tt.wantFiles) {
				t.Fatalf("matched %v, want %v", files, tt.wantFiles)
			}
			for _, want := range tt.wantFiles {
				found := false
				for _, f := range files {
					if f == want {
						found = true
					}
				}
				if !found {
					t.Errorf("expected a match in %s, got %v", want, files)
				}
			}
		})
	}
}

func TestFindReferences(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"a.go": "package x\n\nvar total = Counter + 1\n",
		"b.go": "package x\n\nfunc use() { _ = Counter }\n\n// Counterexample should not match\n",
	})
	c := NewCodebase(root, 500)

	result, err := c.FindReferences("Counter")
	if err != nil {
		t.Fatalf("FindReferences: %v", err)
	}
	if result.TotalFound != 2 {
		t.Errorf("found %d references, want 2 (word-boundary match)", result.TotalFound)
	}
	for _, ref := range result.References {
		if strings.Contains(ref.Context, "Counterexample") {
			t.Errorf("matched inside a longer identifier: %q", ref.Context)
		}
	}
}

func TestReadFileSlice(t *testing.T) {
	var lines []string
	for i := 1; i <= 20; i++ {
		lines = append(lines, "line")
	}
	root := writeWorkspace(t, map[string]string{
		"src/main.go": strings.Join(lines, "\n") + "\n",
	})
	c := NewCodebase(root, 5)

	t.Run("bounded by max lines", func(t *testing.T) {
		slice, err := c.ReadFileSlice("src/main.go", 1, 20)
		if err != nil {
			t.Fatalf("ReadFileSlice: %v", err)
		}
		if slice.EndLine-slice.StartLine+1 > 5 {
			t.Errorf("slice spans %d lines, max is 5", slice.EndLine-slice.StartLine+1)
		}
		if slice.TotalLines != 20 {
			t.Errorf("TotalLines = %d, want 20", slice.TotalLines)
		}
		if slice.Language != "go" {
			t.Errorf("Language = %q, want go", slice.Language)
		}
	})

	t.Run("range clamped to file", func(t *testing.T) {
		slice, err := c.ReadFileSlice("src/main.go", 18, 99)
		if err != nil {
			t.Fatalf("ReadFileSlice: %v", err)
		}
		if slice.EndLine != 20 {
			t.Errorf("EndLine = %d, want 20", slice.EndLine)
		}
	})

	t.Run("path confined to root", func(t *testing.T) {
		_, err := c.ReadFileSlice("../../etc/passwd", 1, 10)
		var verr *oracle.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want *oracle.ValidationError, got %v", err)
		}
	})
}
