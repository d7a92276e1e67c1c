package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/glassbox-io/glassbox/internal/models"
)

// Result caps for architecture scans.
const (
	maxModuleExports = 10
	maxMainFiles     = 5
	maxGraphEdges    = 200
	maxGraphEnds     = 20
	maxGraphCycles   = 10
	maxSchemas       = 50
	maxEndpoints     = 30
	maxFlowSteps     = 10
)

// purposePatterns infer what a directory is for from its name.
var purposePatterns = []struct{ pattern, purpose string }{
	{"cmd", "Binary entry points"},
	{"internal", "Internal packages"},
	{"pkg", "Public packages"},
	{"components", "UI components"},
	{"pages", "Route pages/views"},
	{"app", "Application entry and routing"},
	{"lib", "Utility libraries and helpers"},
	{"utils", "Utility functions"},
	{"hooks", "UI hooks"},
	{"services", "Service layer / business logic"},
	{"api", "API routes or client"},
	{"tools", "Agent tools or utilities"},
	{"schemas", "Data schemas and validation"},
	{"models", "Data models"},
	{"controllers", "Request handlers"},
	{"middleware", "Request/response middleware"},
	{"config", "Configuration"},
	{"test", "Test files"},
	{"types", "Type definitions"},
	{"interfaces", "Interface definitions"},
	{"constants", "Constants and enums"},
	{"assets", "Static assets"},
	{"public", "Public static files"},
	{"styles", "Stylesheets"},
	{"docs", "Documentation"},
}

// Architecture provides workspace-level structural analysis: module layout,
// import graphs, schema extraction, and data flow tracing. Like Codebase,
// everything here is a text scan over the workspace.
type Architecture struct {
	Root string
	scan *Codebase
}

// NewArchitecture creates architecture tools rooted at root.
func NewArchitecture(root string) *Architecture {
	return &Architecture{Root: root, scan: NewCodebase(root, 0)}
}

func inferPurpose(dirName string) string {
	lower := strings.ToLower(dirName)
	for _, p := range purposePatterns {
		if lower == p.pattern {
			return p.purpose
		}
	}
	for _, p := range purposePatterns {
		if strings.Contains(lower, p.pattern) {
			return p.purpose
		}
	}
	return "Application module"
}

// layerFor assigns a module directory to an architectural layer.
func layerFor(dirName string) string {
	lower := strings.ToLower(dirName)
	switch {
	case strings.Contains(lower, "api") || strings.Contains(lower, "routes") || strings.Contains(lower, "server"):
		return "API Layer"
	case strings.Contains(lower, "service") || strings.Contains(lower, "business"):
		return "Service Layer"
	case strings.Contains(lower, "component") || strings.Contains(lower, "ui") || strings.Contains(lower, "tui"):
		return "Presentation Layer"
	case strings.Contains(lower, "model") || strings.Contains(lower, "schema"):
		return "Data Layer"
	case strings.Contains(lower, "tool"):
		return "Tools Layer"
	default:
		return "Core"
	}
}

// Export declaration patterns per language.
var (
	goExportPattern = regexp.MustCompile(`^(func|type)\s+(?:\([^)]*\)\s*)?([A-Z]\w*)`)
	pyExportPattern = regexp.MustCompile(`^(?:async\s+)?(def|class)\s+([A-Za-z]\w*)`)
	tsExportPattern = regexp.MustCompile(`^export\s+(?:default\s+)?(?:async\s+)?(function|class|interface|type|const|let|var)\s+(\w+)`)
)

// mainFileNames are files that anchor a module.
var mainFileNames = map[string]bool{
	"main.go":     true,
	"main.py":     true,
	"__init__.py": true,
	"index.ts":    true,
	"index.tsx":   true,
	"index.js":    true,
}

// ModuleStructure analyzes the top-level module layout of the workspace.
func (a *Architecture) ModuleStructure() (*models.ModuleStructureResult, error) {
	entries, err := os.ReadDir(a.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace root: %w", err)
	}

	result := &models.ModuleStructureResult{
		RootPath: a.Root,
		Modules:  []models.ModuleInfo{},
		Layers:   map[string][]string{},
	}

	for _, entry := range entries {
		if !entry.IsDir() || skipDirs[entry.Name()] || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info := a.scanModule(entry.Name())
		result.Modules = append(result.Modules, info)
		layer := layerFor(entry.Name())
		result.Layers[layer] = append(result.Layers[layer], entry.Name())
	}

	result.ArchitectureType = a.detectArchitectureType(result.Modules)
	return result, nil
}

// scanModule collects file counts, anchor files, and exports for one
// top-level directory.
func (a *Architecture) scanModule(dirName string) models.ModuleInfo {
	info := models.ModuleInfo{
		Path:      dirName,
		Purpose:   inferPurpose(dirName),
		MainFiles: []string{},
		Exports:   []string{},
	}

	dir := filepath.Join(a.Root, dirName)
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		info.FileCount++
		if mainFileNames[d.Name()] && len(info.MainFiles) < maxMainFiles {
			info.MainFiles = append(info.MainFiles, rel)
		}
		if len(info.Exports) < maxModuleExports {
			info.Exports = appendExports(info.Exports, path)
		}
		return nil
	})

	return info
}

// appendExports scans one file for top-level exported declarations.
func appendExports(exports []string, path string) []string {
	var pattern *regexp.Regexp
	switch filepath.Ext(path) {
	case ".go":
		pattern = goExportPattern
	case ".py":
		pattern = pyExportPattern
	case ".ts", ".tsx", ".js", ".jsx":
		pattern = tsExportPattern
	default:
		return exports
	}

	scanLines(path, func(_ int, line string) bool {
		m := pattern.FindStringSubmatch(line)
		if m != nil && !strings.HasPrefix(m[2], "_") {
			exports = append(exports, m[1]+" "+m[2])
		}
		return len(exports) < maxModuleExports
	})
	return exports
}

func (a *Architecture) detectArchitectureType(modules []models.ModuleInfo) string {
	hasGo := fileExists(filepath.Join(a.Root, "go.mod"))
	hasFrontend := false
	hasBackend := hasGo
	for _, m := range modules {
		lower := strings.ToLower(m.Path)
		if strings.Contains(lower, "web") || strings.Contains(lower, "frontend") || lower == "app" {
			hasFrontend = true
		}
		if strings.Contains(lower, "backend") || strings.Contains(lower, "api") || lower == "cmd" {
			hasBackend = true
		}
	}

	switch {
	case hasFrontend && hasBackend:
		return "Full-stack monorepo (Frontend + Backend)"
	case hasGo:
		return "Go service (cmd/internal layout)"
	case hasBackend:
		return "Backend service"
	case hasFrontend:
		return "Frontend application"
	default:
		return "Library/Package"
	}
}

// Import statement patterns per language.
var (
	goImportSingle = regexp.MustCompile(`^import\s+(?:\w+\s+)?"([^"]+)"`)
	goImportInner  = regexp.MustCompile(`^\s+(?:\w+\s+)?"([^"]+)"`)
	pyImport       = regexp.MustCompile(`^import\s+([\w.]+)`)
	pyFromImport   = regexp.MustCompile(`^from\s+([\w.]+)\s+import`)
	tsImports      = []struct {
		pattern    *regexp.Regexp
		importType string
	}{
		{regexp.MustCompile(`import\s+\w+\s+from\s+["']([^"']+)["']`), "default"},
		{regexp.MustCompile(`import\s+\{[^}]+\}\s+from\s+["']([^"']+)["']`), "named"},
		{regexp.MustCompile(`import\s+\*\s+as\s+\w+\s+from\s+["']([^"']+)["']`), "namespace"},
		{regexp.MustCompile(`^import\s+["']([^"']+)["']`), "side-effect"},
	}
)

// DependencyGraph builds the file-level import graph for a scope within the
// workspace ("all" or a relative directory).
func (a *Architecture) DependencyGraph(scope string) (*models.DependencyGraphResult, error) {
	searchRoot := a.Root
	if scope != "" && scope != "all" {
		candidate := filepath.Join(a.Root, scope)
		if fileExists(candidate) {
			searchRoot = candidate
		}
	}

	nodeSet := map[string]bool{}
	var rawEdges []models.DependencyEdge

	err := a.scan.walkSources(func(path, rel string) error {
		if !strings.HasPrefix(path, searchRoot) {
			return nil
		}
		ext := filepath.Ext(path)
		switch ext {
		case ".go", ".py", ".ts", ".tsx", ".js", ".jsx":
		default:
			return nil
		}
		nodeSet[rel] = true
		for _, e := range extractImports(path, rel, ext) {
			rawEdges = append(rawEdges, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Resolve import targets to file nodes where possible so entry/leaf and
	// cycle analysis work on real files, not module strings.
	edges := make([]models.DependencyEdge, 0, len(rawEdges))
	importsOf := map[string][]string{}
	for _, e := range rawEdges {
		e.Target = resolveImportTarget(nodeSet, e.Source, e.Target)
		edges = append(edges, e)
		importsOf[e.Source] = append(importsOf[e.Source], e.Target)
	}

	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	targets := map[string]bool{}
	sources := map[string]bool{}
	for _, e := range edges {
		targets[e.Target] = true
		sources[e.Source] = true
	}
	var entryPoints, leafNodes []string
	for _, n := range nodes {
		if !targets[n] && len(entryPoints) < maxGraphEnds {
			entryPoints = append(entryPoints, n)
		}
		if !sources[n] && len(leafNodes) < maxGraphEnds {
			leafNodes = append(leafNodes, n)
		}
	}

	cycles := findCycles(nodes, nodeSet, importsOf)

	if len(edges) > maxGraphEdges {
		edges = edges[:maxGraphEdges]
	}
	return &models.DependencyGraphResult{
		Nodes:                nodes,
		Edges:                edges,
		EntryPoints:          entryPoints,
		LeafNodes:            leafNodes,
		CircularDependencies: cycles,
	}, nil
}

// extractImports pulls import statements out of one source file.
func extractImports(path, rel, ext string) []models.DependencyEdge {
	var edges []models.DependencyEdge
	inGoBlock := false

	scanLines(path, func(_ int, line string) bool {
		switch ext {
		case ".go":
			if strings.HasPrefix(line, "import (") {
				inGoBlock = true
				return true
			}
			if inGoBlock {
				if strings.HasPrefix(line, ")") {
					inGoBlock = false
					return true
				}
				if m := goImportInner.FindStringSubmatch(line); m != nil {
					edges = append(edges, models.DependencyEdge{Source: rel, Target: m[1], ImportType: "package"})
				}
				return true
			}
			if m := goImportSingle.FindStringSubmatch(line); m != nil {
				edges = append(edges, models.DependencyEdge{Source: rel, Target: m[1], ImportType: "package"})
			}
		case ".py":
			if m := pyFromImport.FindStringSubmatch(line); m != nil {
				edges = append(edges, models.DependencyEdge{Source: rel, Target: m[1], ImportType: "named"})
			} else if m := pyImport.FindStringSubmatch(line); m != nil {
				edges = append(edges, models.DependencyEdge{Source: rel, Target: m[1], ImportType: "namespace"})
			}
		default: // ts/tsx/js/jsx
			for _, p := range tsImports {
				if m := p.pattern.FindStringSubmatch(line); m != nil {
					edges = append(edges, models.DependencyEdge{Source: rel, Target: m[1], ImportType: p.importType})
					break
				}
			}
		}
		return true
	})
	return edges
}

// resolveImportTarget maps an import string to a scanned file node when one
// matches: relative TS/JS paths and dotted Python modules. Unresolvable
// targets (external packages) pass through unchanged.
func resolveImportTarget(nodes map[string]bool, source, target string) string {
	var candidates []string
	if strings.HasPrefix(target, ".") {
		base := filepath.Join(filepath.Dir(source), target)
		for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".py"} {
			candidates = append(candidates, base+ext)
		}
		candidates = append(candidates, filepath.Join(base, "index.ts"), filepath.Join(base, "index.js"))
	} else {
		slashed := strings.ReplaceAll(target, ".", "/")
		candidates = append(candidates, slashed+".py", filepath.Join(slashed, "__init__.py"))
	}
	for _, c := range candidates {
		if nodes[filepath.Clean(c)] {
			return filepath.Clean(c)
		}
	}
	return target
}

// findCycles runs a bounded DFS over resolved file edges.
func findCycles(nodes []string, nodeSet map[string]bool, importsOf map[string][]string) [][]string {
	var cycles [][]string
	for _, start := range nodes {
		if len(cycles) >= maxGraphCycles {
			break
		}
		visited := map[string]bool{}
		var path []string
		var dfs func(current string) bool
		dfs = func(current string) bool {
			for i, p := range path {
				if p == current {
					cycle := append(append([]string{}, path[i:]...), current)
					cycles = append(cycles, cycle)
					return true
				}
			}
			if visited[current] {
				return false
			}
			visited[current] = true
			path = append(path, current)
			for _, target := range importsOf[current] {
				if !nodeSet[target] {
					continue
				}
				if dfs(target) {
					return true
				}
			}
			path = path[:len(path)-1]
			return false
		}
		dfs(start)
	}
	return cycles
}

// Schema and endpoint extraction patterns.
var (
	goStructPattern    = regexp.MustCompile(`(?ms)^type\s+(\w+)\s+struct\s*\{(.*?)^\}`)
	goFieldPattern     = regexp.MustCompile(`^\s+([A-Z]\w*)\s+([\w\[\]*.{}]+)`)
	tsInterfacePattern = regexp.MustCompile(`(?ms)(?:export\s+)?interface\s+(\w+)(?:\s+extends\s+[^{]+)?\s*\{(.*?)\}`)
	tsFieldPattern     = regexp.MustCompile(`(\w+)(\?)?:\s*([^;\n]+)`)
	pyModelPattern     = regexp.MustCompile(`(?m)^class\s+(\w+)\([^)]*BaseModel[^)]*\):`)
	pyFieldPattern     = regexp.MustCompile(`(?m)^    (\w+)\s*:\s*([^=\n]+?)(\s*=.*)?$`)
	pyBlockEnd         = regexp.MustCompile(`(?m)^\S`)
	endpointPattern    = regexp.MustCompile(`(?:@(?:app|router)|\w+)\.(get|post|put|delete|patch|Get|Post|Put|Delete|Patch)\s*\(\s*["']([^"']+)["']`)
	handleFuncPattern  = regexp.MustCompile(`Handle(?:Func)?\(\s*"([^"]+)"`)
)

// APIContracts extracts data schemas and HTTP route registrations.
func (a *Architecture) APIContracts() (*models.APIContractsResult, error) {
	result := &models.APIContractsResult{
		Schemas:   []models.SchemaInfo{},
		Endpoints: []models.Endpoint{},
	}

	err := a.scan.walkSources(func(path, rel string) error {
		if len(result.Schemas) >= maxSchemas && len(result.Endpoints) >= maxEndpoints {
			return fs.SkipAll
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		content := string(data)

		switch filepath.Ext(path) {
		case ".go":
			extractGoSchemas(result, rel, content)
			extractEndpoints(result, rel, content)
		case ".py":
			extractPySchemas(result, rel, content)
			extractEndpoints(result, rel, content)
		case ".ts", ".tsx":
			extractTSSchemas(result, rel, content)
			extractEndpoints(result, rel, content)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Schemas) > maxSchemas {
		result.Schemas = result.Schemas[:maxSchemas]
	}
	if len(result.Endpoints) > maxEndpoints {
		result.Endpoints = result.Endpoints[:maxEndpoints]
	}
	return result, nil
}

func lineOf(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}

func extractGoSchemas(result *models.APIContractsResult, rel, content string) {
	for _, m := range goStructPattern.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		body := content[m[4]:m[5]]

		var fields []models.SchemaField
		for _, line := range strings.Split(body, "\n") {
			fm := goFieldPattern.FindStringSubmatch(line)
			if fm == nil {
				continue
			}
			fields = append(fields, models.SchemaField{
				Name:     fm[1],
				Type:     fm[2],
				Required: !strings.Contains(line, "omitempty"),
			})
		}
		result.Schemas = append(result.Schemas, models.SchemaInfo{
			Name:   name,
			File:   rel,
			Line:   lineOf(content, m[0]),
			Fields: fields,
		})
	}
}

func extractPySchemas(result *models.APIContractsResult, rel, content string) {
	for _, m := range pyModelPattern.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]

		// Field block runs from the class line to the next top-level statement.
		rest := content[m[1]:]
		if end := pyBlockEnd.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		var fields []models.SchemaField
		for _, fm := range pyFieldPattern.FindAllStringSubmatch(rest, -1) {
			fields = append(fields, models.SchemaField{
				Name:     fm[1],
				Type:     strings.TrimSpace(fm[2]),
				Required: fm[3] == "",
			})
		}
		result.Schemas = append(result.Schemas, models.SchemaInfo{
			Name:   name,
			File:   rel,
			Line:   lineOf(content, m[0]),
			Fields: fields,
		})
	}
}

func extractTSSchemas(result *models.APIContractsResult, rel, content string) {
	for _, m := range tsInterfacePattern.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		body := content[m[4]:m[5]]

		var fields []models.SchemaField
		for _, fm := range tsFieldPattern.FindAllStringSubmatch(body, -1) {
			fields = append(fields, models.SchemaField{
				Name:     fm[1],
				Type:     strings.TrimSpace(fm[3]),
				Required: fm[2] == "",
			})
		}
		result.Schemas = append(result.Schemas, models.SchemaInfo{
			Name:   name,
			File:   rel,
			Line:   lineOf(content, m[0]),
			Fields: fields,
		})
	}
}

func extractEndpoints(result *models.APIContractsResult, rel, content string) {
	for _, m := range endpointPattern.FindAllStringSubmatchIndex(content, -1) {
		result.Endpoints = append(result.Endpoints, models.Endpoint{
			Method: strings.ToUpper(content[m[2]:m[3]]),
			Path:   content[m[4]:m[5]],
			File:   rel,
			Line:   lineOf(content, m[0]),
		})
	}
	for _, m := range handleFuncPattern.FindAllStringSubmatchIndex(content, -1) {
		result.Endpoints = append(result.Endpoints, models.Endpoint{
			Method: "ANY",
			Path:   content[m[2]:m[3]],
			File:   rel,
			Line:   lineOf(content, m[0]),
		})
	}
}

// ExplainArchitecture builds a high-level overview of the workspace: tech
// stack from build files, entry points, and the overall pattern.
func (a *Architecture) ExplainArchitecture() (*models.ArchitectureOverview, error) {
	overview := &models.ArchitectureOverview{
		TechStack:     map[string][]string{},
		KeyComponents: []models.ComponentInfo{},
		EntryPoints:   []models.EntryPointInfo{},
	}

	addTech := func(category string, names ...string) {
		overview.TechStack[category] = append(overview.TechStack[category], names...)
	}

	if data, err := os.ReadFile(filepath.Join(a.Root, "go.mod")); err == nil {
		content := string(data)
		addTech("backend", "Go")
		for marker, name := range map[string]string{
			"gin-gonic/gin": "Gin",
			"labstack/echo": "Echo",
			"spf13/cobra":   "Cobra",
			"charmbracelet": "Bubble Tea",
		} {
			if strings.Contains(content, marker) {
				addTech("backend", name)
			}
		}
	}
	if data, err := readFirst(a.Root, "web/package.json", "package.json"); err == nil {
		content := string(data)
		for marker, name := range map[string]string{
			`"next"`:       "Next.js",
			`"react"`:      "React",
			`"typescript"`: "TypeScript",
			"tailwindcss":  "Tailwind CSS",
		} {
			if strings.Contains(content, marker) {
				addTech("frontend", name)
			}
		}
		if strings.Contains(content, `"vitest"`) {
			addTech("testing", "Vitest")
		} else if strings.Contains(content, `"jest"`) {
			addTech("testing", "Jest")
		}
	}
	if data, err := readFirst(a.Root, "backend/pyproject.toml", "pyproject.toml"); err == nil {
		content := strings.ToLower(string(data))
		for marker, name := range map[string]string{
			"fastapi":  "FastAPI",
			"pydantic": "Pydantic",
			"uvicorn":  "Uvicorn",
		} {
			if strings.Contains(content, marker) {
				addTech("backend", name)
			}
		}
		if strings.Contains(content, "pytest") {
			addTech("testing", "pytest")
		}
	}
	if fileExists(filepath.Join(a.Root, "Dockerfile")) || fileExists(filepath.Join(a.Root, "backend", "Dockerfile")) {
		addTech("deployment", "Docker")
	}
	if fileExists(filepath.Join(a.Root, "vercel.json")) {
		addTech("deployment", "Vercel")
	}
	for category, names := range overview.TechStack {
		sort.Strings(names)
		overview.TechStack[category] = names
	}

	// Entry points: Go binaries, a Python backend, a Next.js app.
	if matches, _ := filepath.Glob(filepath.Join(a.Root, "cmd", "*", "main.go")); len(matches) > 0 {
		sort.Strings(matches)
		for _, match := range matches {
			rel, _ := filepath.Rel(a.Root, match)
			binary := filepath.Base(filepath.Dir(match))
			overview.EntryPoints = append(overview.EntryPoints, models.EntryPointInfo{
				Type: "backend", File: rel, Description: "Go binary: " + binary,
			})
			overview.KeyComponents = append(overview.KeyComponents, models.ComponentInfo{
				Name: binary, File: rel, Role: "Application binary",
			})
		}
	}
	for _, candidate := range []struct{ rel, typ, desc string }{
		{"main.go", "backend", "Go entry point"},
		{"backend/app/main.py", "backend", "Python application entry point"},
		{"web/app/page.tsx", "frontend", "Next.js app router main page"},
	} {
		if fileExists(filepath.Join(a.Root, candidate.rel)) {
			overview.EntryPoints = append(overview.EntryPoints, models.EntryPointInfo{
				Type: candidate.typ, File: candidate.rel, Description: candidate.desc,
			})
		}
	}

	structure, err := a.ModuleStructure()
	if err != nil {
		return nil, err
	}
	overview.ArchitecturePattern = structure.ArchitectureType

	backend := strings.Join(overview.TechStack["backend"], ", ")
	if backend == "" {
		backend = "unknown"
	}
	overview.Summary = fmt.Sprintf(
		"This is a %s with %d top-level modules. Backend stack: %s. Entry points: %d.",
		overview.ArchitecturePattern, len(structure.Modules), backend, len(overview.EntryPoints))
	return overview, nil
}

// readFirst returns the first of the named files that exists under root.
func readFirst(root string, names ...string) ([]byte, error) {
	var lastErr error
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TraceDataFlow follows one entity through the workspace: every file that
// mentions it, in walk order, bounded to the first few hops.
func (a *Architecture) TraceDataFlow(entity string) (*models.DataFlowResult, error) {
	result := &models.DataFlowResult{
		Entity:     entity,
		Steps:      []models.DataFlowStep{},
		EntryPoint: "unknown",
		ExitPoint:  "unknown",
	}

	err := a.scan.walkSources(func(path, rel string) error {
		if len(result.Steps) >= maxFlowSteps {
			return fs.SkipAll
		}
		return scanLines(path, func(lineNo int, line string) bool {
			if strings.Contains(line, entity) {
				result.Steps = append(result.Steps, models.DataFlowStep{
					File:        rel,
					Line:        lineNo,
					Description: models.Preview(strings.TrimSpace(line), models.PreviewLimit),
				})
			}
			return len(result.Steps) < maxFlowSteps
		})
	})
	if err != nil {
		return nil, err
	}

	if len(result.Steps) > 0 {
		result.EntryPoint = result.Steps[0].File
		result.ExitPoint = result.Steps[len(result.Steps)-1].File
	}
	return result, nil
}

// RegisterArchitecture adds the structural analysis tools to a registry.
func RegisterArchitecture(r *Registry, a *Architecture) error {
	specs := []Tool{
		{
			Name:        "get_module_structure",
			Description: "Analyze the high-level module layout of the workspace",
			Run: func(_ context.Context, _ map[string]any) (any, error) {
				return a.ModuleStructure()
			},
		},
		{
			Name:        "get_dependency_graph",
			Description: "Build the import graph of the workspace or a subdirectory",
			Run: func(_ context.Context, args map[string]any) (any, error) {
				return a.DependencyGraph(stringArg(args, "scope"))
			},
		},
		{
			Name:        "get_api_contracts",
			Description: "Extract data schemas and HTTP route registrations",
			Run: func(_ context.Context, _ map[string]any) (any, error) {
				return a.APIContracts()
			},
		},
		{
			Name:        "explain_architecture",
			Description: "Summarize the workspace architecture and tech stack",
			Run: func(_ context.Context, _ map[string]any) (any, error) {
				return a.ExplainArchitecture()
			},
		},
		{
			Name:        "trace_data_flow",
			Description: "Trace where an entity appears across the workspace",
			Required:    []string{"entity"},
			Run: func(_ context.Context, args map[string]any) (any, error) {
				return a.TraceDataFlow(stringArg(args, "entity"))
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
