package models

// SymbolLocation is a place in the codebase where a symbol is defined.
type SymbolLocation struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// FindSymbolResult is the outcome of a definition scan.
type FindSymbolResult struct {
	Symbol     string           `json:"symbol"`
	Locations  []SymbolLocation `json:"locations"`
	TotalFound int              `json:"total_found"`
}

// Reference is a single usage of a symbol.
type Reference struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Context string `json:"context"`
}

// FindReferencesResult is the outcome of a reference scan.
type FindReferencesResult struct {
	Symbol     string      `json:"symbol"`
	References []Reference `json:"references"`
	TotalFound int         `json:"total_found"`
}

// FileSlice is a bounded excerpt of a source file.
type FileSlice struct {
	FilePath   string `json:"file_path"`
	Content    string `json:"content"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	TotalLines int    `json:"total_lines"`
	Language   string `json:"language"`
}

// DefinitionLocation is an analyzer-resolved definition site.
type DefinitionLocation struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
	Preview   string `json:"preview"`
}

// DefinitionResult is the outcome of an analyzer definition query.
type DefinitionResult struct {
	Symbol      string               `json:"symbol"`
	SourceFile  string               `json:"source_file"`
	SourceLine  int                  `json:"source_line"`
	Definitions []DefinitionLocation `json:"definitions"`
}

// TypeInfo is analyzer-resolved type information for a symbol.
type TypeInfo struct {
	Symbol    string `json:"symbol"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Signature string `json:"signature"`
}

// DocumentSymbol is one symbol in a document outline.
type DocumentSymbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Line      int    `json:"line"`
	Container string `json:"container,omitempty"`
}

// DocumentSymbolsResult is the outcome of a document outline query.
type DocumentSymbolsResult struct {
	File    string           `json:"file"`
	Symbols []DocumentSymbol `json:"symbols"`
}

// CallerInfo identifies one caller of a function.
type CallerInfo struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// CallersResult is the outcome of an incoming-calls query.
type CallersResult struct {
	Function string       `json:"function"`
	File     string       `json:"file"`
	Callers  []CallerInfo `json:"callers"`
}
