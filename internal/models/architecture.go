package models

// ModuleInfo describes one top-level module directory in the workspace.
type ModuleInfo struct {
	Path      string   `json:"path"`
	Purpose   string   `json:"purpose"`
	FileCount int      `json:"file_count"`
	MainFiles []string `json:"main_files"`
	Exports   []string `json:"exports"`
}

// ModuleStructureResult is the outcome of a module structure analysis.
type ModuleStructureResult struct {
	RootPath         string              `json:"root_path"`
	Modules          []ModuleInfo        `json:"modules"`
	ArchitectureType string              `json:"architecture_type"`
	Layers           map[string][]string `json:"layers"`
}

// DependencyEdge is one import relationship.
type DependencyEdge struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	ImportType string `json:"import_type"`
}

// DependencyGraphResult is the outcome of a dependency graph analysis.
type DependencyGraphResult struct {
	Nodes                []string         `json:"nodes"`
	Edges                []DependencyEdge `json:"edges"`
	EntryPoints          []string         `json:"entry_points"`
	LeafNodes            []string         `json:"leaf_nodes"`
	CircularDependencies [][]string       `json:"circular_dependencies"`
}

// SchemaField is one field of a schema or interface.
type SchemaField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// SchemaInfo describes one data schema found in the workspace.
type SchemaInfo struct {
	Name   string        `json:"name"`
	File   string        `json:"file"`
	Line   int           `json:"line"`
	Fields []SchemaField `json:"fields"`
}

// Endpoint is one HTTP route registration found in the workspace.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	File   string `json:"file"`
	Line   int    `json:"line"`
}

// APIContractsResult is the outcome of an API contract scan.
type APIContractsResult struct {
	Schemas   []SchemaInfo `json:"schemas"`
	Endpoints []Endpoint   `json:"endpoints"`
}

// ComponentInfo names a key component and its role.
type ComponentInfo struct {
	Name string `json:"name"`
	File string `json:"file"`
	Role string `json:"role"`
}

// EntryPointInfo names one application entry point.
type EntryPointInfo struct {
	Type        string `json:"type"`
	File        string `json:"file"`
	Description string `json:"description"`
}

// ArchitectureOverview is a high-level summary of the workspace.
type ArchitectureOverview struct {
	Summary             string              `json:"summary"`
	TechStack           map[string][]string `json:"tech_stack"`
	ArchitecturePattern string              `json:"architecture_pattern"`
	KeyComponents       []ComponentInfo     `json:"key_components"`
	EntryPoints         []EntryPointInfo    `json:"entry_points"`
}

// DataFlowStep is one hop in a traced data flow.
type DataFlowStep struct {
	File        string `json:"file"`
	Line        int    `json:"line"`
	Description string `json:"description"`
}

// DataFlowResult is the outcome of tracing an entity through the workspace.
type DataFlowResult struct {
	Entity     string         `json:"entity"`
	Steps      []DataFlowStep `json:"steps"`
	EntryPoint string         `json:"entry_point"`
	ExitPoint  string         `json:"exit_point"`
}
