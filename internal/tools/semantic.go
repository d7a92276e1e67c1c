package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/glassbox-io/glassbox/internal/models"
	"github.com/glassbox-io/glassbox/internal/oracle"
)

// Semantic provides analyzer-backed code inspection for one workspace.
// Unlike the Codebase scanners, these answers are resolved, not guessed.
type Semantic struct {
	Oracle    *oracle.Registry
	Workspace string
}

// NewSemantic creates semantic tools bound to a workspace.
func NewSemantic(reg *oracle.Registry, workspace string) *Semantic {
	return &Semantic{Oracle: reg, Workspace: workspace}
}

// query runs one analyzer query and decodes the raw result into out.
func (s *Semantic) query(ctx context.Context, kind oracle.QueryKind, params oracle.Params, out any) error {
	raw, err := s.Oracle.Query(ctx, s.Workspace, kind, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", kind, err)
	}
	return nil
}

// GoToDefinition resolves where a symbol is defined.
func (s *Semantic) GoToDefinition(ctx context.Context, file, symbol string) (*models.DefinitionResult, error) {
	var out models.DefinitionResult
	if err := s.query(ctx, oracle.QueryDefinition, oracle.Params{File: file, Symbol: symbol}, &out); err != nil {
		return nil, err
	}
	out.Symbol = symbol
	return &out, nil
}

// FindAllReferences resolves every usage of a symbol.
func (s *Semantic) FindAllReferences(ctx context.Context, file, symbol string) (*models.FindReferencesResult, error) {
	var out models.FindReferencesResult
	if err := s.query(ctx, oracle.QueryReferences, oracle.Params{File: file, Symbol: symbol}, &out); err != nil {
		return nil, err
	}
	out.Symbol = symbol
	return &out, nil
}

// GetTypeInfo resolves the declared type or signature of a symbol.
func (s *Semantic) GetTypeInfo(ctx context.Context, file, symbol string) (*models.TypeInfo, error) {
	var out models.TypeInfo
	if err := s.query(ctx, oracle.QueryTypeInfo, oracle.Params{File: file, Symbol: symbol}, &out); err != nil {
		return nil, err
	}
	out.Symbol = symbol
	return &out, nil
}

// GetDocumentSymbols resolves the symbol outline of one file.
func (s *Semantic) GetDocumentSymbols(ctx context.Context, file string) (*models.DocumentSymbolsResult, error) {
	var out models.DocumentSymbolsResult
	if err := s.query(ctx, oracle.QueryDocumentSymbols, oracle.Params{File: file}, &out); err != nil {
		return nil, err
	}
	out.File = file
	return &out, nil
}

// GetCallers resolves the incoming calls of a function.
func (s *Semantic) GetCallers(ctx context.Context, file, symbol string) (*models.CallersResult, error) {
	var out models.CallersResult
	if err := s.query(ctx, oracle.QueryCallers, oracle.Params{File: file, Symbol: symbol}, &out); err != nil {
		return nil, err
	}
	out.Function = symbol
	out.File = file
	return &out, nil
}

// RegisterSemantic adds the analyzer-backed tools to a registry.
func RegisterSemantic(r *Registry, s *Semantic) error {
	specs := []Tool{
		{
			Name:        "go_to_definition",
			Description: "Resolve where a symbol is defined using the semantic analyzer",
			Required:    []string{"file", "symbol"},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return s.GoToDefinition(ctx, stringArg(args, "file"), stringArg(args, "symbol"))
			},
		},
		{
			Name:        "find_all_references",
			Description: "Resolve every usage of a symbol using the semantic analyzer",
			Required:    []string{"file", "symbol"},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return s.FindAllReferences(ctx, stringArg(args, "file"), stringArg(args, "symbol"))
			},
		},
		{
			Name:        "get_type_info",
			Description: "Resolve the declared type or signature of a symbol",
			Required:    []string{"file", "symbol"},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return s.GetTypeInfo(ctx, stringArg(args, "file"), stringArg(args, "symbol"))
			},
		},
		{
			Name:        "get_document_symbols",
			Description: "Resolve the symbol outline of one file",
			Required:    []string{"file"},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return s.GetDocumentSymbols(ctx, stringArg(args, "file"))
			},
		},
		{
			Name:        "get_callers",
			Description: "Resolve the incoming calls of a function",
			Required:    []string{"file", "symbol"},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return s.GetCallers(ctx, stringArg(args, "file"), stringArg(args, "symbol"))
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
