package oracle

import "encoding/json"

// QueryKind identifies an analyzer request kind.
type QueryKind string

// Query kinds understood by the analyzer.
const (
	QueryInitialize      QueryKind = "initialize"
	QueryShutdown        QueryKind = "shutdown"
	QueryDefinition      QueryKind = "definition"
	QueryReferences      QueryKind = "references"
	QueryTypeInfo        QueryKind = "type-info"
	QueryDocumentSymbols QueryKind = "document-symbols"
	QueryCallers         QueryKind = "callers"
)

// Params carries the parameters of one analyzer query. Which fields are
// required depends on the query kind; see validate.
type Params struct {
	Root      string `json:"root,omitempty"` // initialize only
	File      string `json:"file,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Line      int    `json:"line,omitempty"`
	Character int    `json:"character,omitempty"`
}

// request is one line on the analyzer's stdin.
type request struct {
	ID     int64     `json:"id"`
	Kind   QueryKind `json:"kind"`
	Params Params    `json:"params"`
}

// response is one line on the analyzer's stdout, correlated by ID.
type response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// validate checks that params carry the fields the query kind requires.
func validate(kind QueryKind, params Params) error {
	switch kind {
	case QueryDefinition, QueryReferences, QueryTypeInfo, QueryCallers:
		if params.File == "" {
			return &ValidationError{Message: string(kind) + " requires a file"}
		}
		if params.Symbol == "" {
			return &ValidationError{Message: string(kind) + " requires a symbol"}
		}
	case QueryDocumentSymbols:
		if params.File == "" {
			return &ValidationError{Message: "document-symbols requires a file"}
		}
	case QueryInitialize, QueryShutdown:
		// internal kinds, never validated against caller input
	default:
		return &ValidationError{Message: "unknown query kind: " + string(kind)}
	}
	return nil
}
