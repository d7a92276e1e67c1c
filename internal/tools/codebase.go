package tools

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/glassbox-io/glassbox/internal/models"
	"github.com/glassbox-io/glassbox/internal/oracle"
)

// Result caps for codebase scans. Scans are previews for the model, not
// exhaustive indexes.
const (
	maxSymbolMatches    = 20
	maxReferenceMatches = 50
)

// Directories never worth scanning.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
}

// Source file extensions the scanner considers, mapped to a language label.
var sourceLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".md":   "markdown",
}

// Codebase provides text-scan code inspection over a workspace root. These
// tools work without the analyzer; the semantic tools are their precise
// counterparts.
type Codebase struct {
	Root         string
	MaxFileLines int
}

// NewCodebase creates a scanner rooted at root.
func NewCodebase(root string, maxFileLines int) *Codebase {
	if maxFileLines <= 0 {
		maxFileLines = 500
	}
	return &Codebase{Root: root, MaxFileLines: maxFileLines}
}

// definitionPattern builds the scan regex for a symbol by search type.
// Patterns deliberately cover several languages; the scan is a heuristic.
func definitionPattern(symbol, searchType string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(symbol)
	var expr string
	switch searchType {
	case "function":
		expr = `(?:func|def|function|fn)\s+(?:\([^)]*\)\s*)?` + quoted + `\b`
	case "type":
		expr = `(?:type|class|struct|interface|enum)\s+` + quoted + `\b`
	case "variable":
		expr = `(?:var|const|let)\s+` + quoted + `\b|\b` + quoted + `\s*[:=]`
	default: // any
		expr = `(?:func|def|function|fn|type|class|struct|interface|enum|var|const|let)\s+(?:\([^)]*\)\s*)?` + quoted + `\b`
	}
	return regexp.Compile(expr)
}

// FindSymbol scans the workspace for definition sites of a symbol.
func (c *Codebase) FindSymbol(symbol, searchType string) (*models.FindSymbolResult, error) {
	pattern, err := definitionPattern(symbol, searchType)
	if err != nil {
		return nil, fmt.Errorf("failed to build search pattern: %w", err)
	}

	result := &models.FindSymbolResult{Symbol: symbol, Locations: []models.SymbolLocation{}}
	err = c.walkSources(func(path, rel string) error {
		if len(result.Locations) >= maxSymbolMatches {
			return fs.SkipAll
		}
		return scanLines(path, func(lineNo int, line string) bool {
			if pattern.MatchString(line) {
				result.Locations = append(result.Locations, models.SymbolLocation{
					File:    rel,
					Line:    lineNo,
					Snippet: models.Preview(strings.TrimSpace(line), models.PreviewLimit),
				})
				result.TotalFound++
			}
			return len(result.Locations) < maxSymbolMatches
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FindReferences scans the workspace for usages of a symbol.
func (c *Codebase) FindReferences(symbol string) (*models.FindReferencesResult, error) {
	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(symbol) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("failed to build search pattern: %w", err)
	}

	result := &models.FindReferencesResult{Symbol: symbol, References: []models.Reference{}}
	err = c.walkSources(func(path, rel string) error {
		if len(result.References) >= maxReferenceMatches {
			return fs.SkipAll
		}
		return scanLines(path, func(lineNo int, line string) bool {
			if pattern.MatchString(line) {
				result.References = append(result.References, models.Reference{
					File:    rel,
					Line:    lineNo,
					Context: models.Preview(strings.TrimSpace(line), models.PreviewLimit),
				})
				result.TotalFound++
			}
			return len(result.References) < maxReferenceMatches
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReadFileSlice returns a bounded excerpt of one file. The path is confined
// to the workspace root and the slice never exceeds MaxFileLines lines.
func (c *Codebase) ReadFileSlice(path string, startLine, endLine int) (*models.FileSlice, error) {
	full, err := oracle.ResolveUnderRoot(c.Root, path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	total := len(lines)
	if startLine < 1 {
		startLine = 1
	}
	if endLine <= 0 || endLine > total {
		endLine = total
	}
	if endLine-startLine+1 > c.MaxFileLines {
		endLine = startLine + c.MaxFileLines - 1
	}
	if startLine > total {
		startLine = total
	}

	var content string
	if total > 0 && startLine <= endLine {
		content = strings.Join(lines[startLine-1:endLine], "\n")
	}

	rel, _ := filepath.Rel(c.Root, full)
	return &models.FileSlice{
		FilePath:   rel,
		Content:    content,
		StartLine:  startLine,
		EndLine:    endLine,
		TotalLines: total,
		Language:   sourceLanguages[filepath.Ext(full)],
	}, nil
}

// walkSources visits every scannable source file under the root.
func (c *Codebase) walkSources(visit func(path, rel string) error) error {
	return filepath.WalkDir(c.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") && path != c.Root {
				return fs.SkipDir
			}
			return nil
		}
		if _, ok := sourceLanguages[filepath.Ext(path)]; !ok {
			return nil
		}
		rel, err := filepath.Rel(c.Root, path)
		if err != nil {
			return nil
		}
		return visit(path, rel)
	})
}

// scanLines calls visit for each line until it returns false.
func scanLines(path string, visit func(lineNo int, line string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // file vanished mid-walk
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if !visit(lineNo, scanner.Text()) {
			return nil
		}
	}
	return nil
}

// RegisterCodebase adds the text-scan tools to a registry.
func RegisterCodebase(r *Registry, c *Codebase) error {
	specs := []Tool{
		{
			Name:        "find_symbol",
			Description: "Scan the codebase for definition sites of a symbol",
			Required:    []string{"symbol"},
			Run: func(_ context.Context, args map[string]any) (any, error) {
				return c.FindSymbol(stringArg(args, "symbol"), stringArg(args, "search_type"))
			},
		},
		{
			Name:        "read_file_slice",
			Description: "Read a bounded range of lines from one source file",
			Required:    []string{"file_path"},
			Run: func(_ context.Context, args map[string]any) (any, error) {
				return c.ReadFileSlice(stringArg(args, "file_path"),
					intArg(args, "start_line", 1), intArg(args, "end_line", 0))
			},
		},
		{
			Name:        "find_references",
			Description: "Scan the codebase for usages of a symbol",
			Required:    []string{"symbol"},
			Run: func(_ context.Context, args map[string]any) (any, error) {
				return c.FindReferences(stringArg(args, "symbol"))
			},
		},
	}
	for _, t := range specs {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
