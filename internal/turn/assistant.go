package turn

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/glassbox-io/glassbox/internal/models"
)

// Assistant is the built-in rule-based model: it routes a user message to
// matching tools by keyword and composes its answer from their results.
// It stands in where no hosted language model is configured, so the full
// pipeline stays observable end to end.
type Assistant struct{}

// NewAssistant creates the built-in model.
func NewAssistant() *Assistant {
	return &Assistant{}
}

var symbolPattern = regexp.MustCompile("`([^`]+)`|\"([^\"]+)\"|'([^']+)'")

// extractSymbol pulls the subject of a code question: a quoted token if
// present, else the last capitalized or snake_case word.
func extractSymbol(input string) string {
	if m := symbolPattern.FindStringSubmatch(input); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				return g
			}
		}
	}
	var candidate string
	for _, word := range strings.Fields(input) {
		word = strings.Trim(word, ".,!?()")
		if word == "" {
			continue
		}
		first := word[0]
		if (first >= 'A' && first <= 'Z' && len(word) > 1) || strings.Contains(word, "_") {
			candidate = word
		}
	}
	return candidate
}

// Generate routes one user message. Tool failures are narrated, never
// fatal; only responder errors (turn aborted) stop generation.
func (a *Assistant) Generate(ctx context.Context, input string, r Responder) error {
	lower := strings.ToLower(input)

	if err := r.Thinking("Reading the question and picking the tools that can ground the answer."); err != nil {
		return err
	}

	switch {
	case containsAny(lower, "defined", "definition", "declared", "find symbol", "where is"):
		return a.answerDefinition(input, r)
	case containsAny(lower, "reference", "usage", "used", "callers", "calls"):
		return a.answerReferences(input, r)
	case containsAny(lower, "trace", "data flow", "flow through", "flows through"):
		return a.answerDataFlow(input, r)
	case containsAny(lower, "architecture", "organized", "structure", "tech stack", "overall"):
		return a.answerArchitecture(lower, r)
	case containsAny(lower, "depend", "import graph", "circular"):
		return a.answerDependencyGraph(r)
	case containsAny(lower, "schema", "contract", "endpoint"):
		return a.answerContracts(r)
	case containsAny(lower, "read", "show", "open", "file"):
		return a.answerFileSlice(input, r)
	case containsAny(lower, "experience", "background", "career", "work history", "role"):
		return a.answerProfile(r, "get_experience", "question about work history")
	case containsAny(lower, "skill", "expertise", "stack", "technolog"):
		return a.answerProfile(r, "get_skills", "question about technical skills")
	case containsAny(lower, "project", "built", "portfolio"):
		return a.answerProfile(r, "get_projects", "question about notable projects")
	default:
		return a.answerOverview(r)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// locateSymbol finds the file to anchor a semantic query on: a path named
// in the question, else the first definition site from a text scan. The
// scan result is returned so a fallback answer can reuse it.
func (a *Assistant) locateSymbol(input, symbol string, r Responder) (string, any, error) {
	if path := filePattern.FindString(input); path != "" {
		return path, nil, nil
	}
	result, err := r.Invoke("find_symbol", map[string]any{"symbol": symbol}, "locating the file that defines the symbol")
	if err != nil {
		return "", nil, err
	}
	if found, ok := result.(*models.FindSymbolResult); ok && len(found.Locations) > 0 {
		return found.Locations[0].File, result, nil
	}
	return "", result, nil
}

// answerDefinition resolves a definition with the analyzer when it can,
// answering from the text scan when the analyzer is unavailable.
func (a *Assistant) answerDefinition(input string, r Responder) error {
	symbol := extractSymbol(input)
	if symbol == "" {
		return r.Text("I need a symbol name to look up. Try quoting it, like `Registry`.")
	}

	file, scanned, err := a.locateSymbol(input, symbol, r)
	if err != nil {
		return r.Text(fmt.Sprintf("I couldn't search for %s: %v. The rest of the codebase tools may still work.", symbol, err))
	}

	if file != "" {
		result, err := r.Invoke("go_to_definition", map[string]any{"file": file, "symbol": symbol}, "resolving the definition with the semantic analyzer")
		if err == nil {
			if err := r.Text(fmt.Sprintf("Here is where %s is defined: ", symbol)); err != nil {
				return err
			}
			return r.Text(summarize(result))
		}
		// The analyzer failure is already in the log; fall back to the scan.
	}

	if scanned == nil {
		scanned, err = r.Invoke("find_symbol", map[string]any{"symbol": symbol}, "falling back to a text scan")
		if err != nil {
			return r.Text(fmt.Sprintf("I couldn't search for %s: %v.", symbol, err))
		}
	}
	if err := r.Text(fmt.Sprintf("From a text scan, %s is defined here: ", symbol)); err != nil {
		return err
	}
	return r.Text(summarize(scanned))
}

// answerReferences resolves usages with the analyzer when it can, falling
// back to the word-boundary scan.
func (a *Assistant) answerReferences(input string, r Responder) error {
	symbol := extractSymbol(input)
	if symbol == "" {
		return r.Text("I need a symbol name to trace. Try quoting it, like `Upsert`.")
	}

	file, _, err := a.locateSymbol(input, symbol, r)
	if err != nil {
		return r.Text(fmt.Sprintf("The reference lookup for %s failed: %v.", symbol, err))
	}

	if file != "" {
		result, err := r.Invoke("find_all_references", map[string]any{"file": file, "symbol": symbol}, "resolving usages with the semantic analyzer")
		if err == nil {
			if err := r.Text(fmt.Sprintf("Usages of %s: ", symbol)); err != nil {
				return err
			}
			return r.Text(summarize(result))
		}
	}

	result, err := r.Invoke("find_references", map[string]any{"symbol": symbol}, "falling back to a text scan")
	if err != nil {
		return r.Text(fmt.Sprintf("The reference scan for %s failed: %v.", symbol, err))
	}
	if err := r.Text(fmt.Sprintf("From a text scan, usages of %s: ", symbol)); err != nil {
		return err
	}
	return r.Text(summarize(result))
}

func (a *Assistant) answerDataFlow(input string, r Responder) error {
	entity := extractSymbol(input)
	if entity == "" {
		return r.Text("Which entity should I trace? Try quoting it, like `LogEntry`.")
	}

	result, err := r.Invoke("trace_data_flow", map[string]any{"entity": entity}, "user asked how data flows through the system")
	if err != nil {
		return r.Text(fmt.Sprintf("I couldn't trace %s: %v.", entity, err))
	}
	if err := r.Text(fmt.Sprintf("Here is how %s moves through the workspace: ", entity)); err != nil {
		return err
	}
	return r.Text(summarize(result))
}

func (a *Assistant) answerArchitecture(lower string, r Responder) error {
	tool, reason := "explain_architecture", "user asked for an architecture overview"
	if containsAny(lower, "organized", "structure", "modules", "layout") {
		tool, reason = "get_module_structure", "user asked how the code is organized"
	}

	result, err := r.Invoke(tool, map[string]any{}, reason)
	if err != nil {
		return r.Text(fmt.Sprintf("I couldn't analyze the architecture: %v.", err))
	}
	return r.Text(summarize(result))
}

func (a *Assistant) answerDependencyGraph(r Responder) error {
	result, err := r.Invoke("get_dependency_graph", map[string]any{"scope": "all"}, "user asked about import relationships")
	if err != nil {
		return r.Text(fmt.Sprintf("I couldn't build the dependency graph: %v.", err))
	}
	return r.Text(summarize(result))
}

func (a *Assistant) answerContracts(r Responder) error {
	result, err := r.Invoke("get_api_contracts", map[string]any{}, "user asked about data schemas or endpoints")
	if err != nil {
		return r.Text(fmt.Sprintf("I couldn't extract the contracts: %v.", err))
	}
	return r.Text(summarize(result))
}

var filePattern = regexp.MustCompile(`[\w./-]+\.\w{1,5}`)

func (a *Assistant) answerFileSlice(input string, r Responder) error {
	path := filePattern.FindString(input)
	if path == "" {
		return r.Text("Which file should I read? Give me a path inside the workspace.")
	}

	result, err := r.Invoke("read_file_slice", map[string]any{"file_path": path}, "user asked to see a file")
	if err != nil {
		return r.Text(fmt.Sprintf("I couldn't read %s: %v.", path, err))
	}
	if err := r.Text(fmt.Sprintf("Contents of %s: ", path)); err != nil {
		return err
	}
	return r.Text(summarize(result))
}

func (a *Assistant) answerProfile(r Responder, tool, reason string) error {
	result, err := r.Invoke(tool, map[string]any{}, reason)
	if err != nil {
		return r.Text(fmt.Sprintf("I couldn't load that part of the profile: %v.", err))
	}
	return r.Text(summarize(result))
}

// answerOverview fans out two independent profile lookups; neither depends
// on the other, so they run concurrently while the intro streams.
func (a *Assistant) answerOverview(r Responder) error {
	experience := r.Dispatch("get_experience", map[string]any{}, "building a general overview")
	skills := r.Dispatch("get_skills", map[string]any{}, "building a general overview")

	if err := r.Text("Here is a quick overview. "); err != nil {
		return err
	}

	if result, err := experience(); err == nil {
		if err := r.Text("Experience: " + summarize(result) + " "); err != nil {
			return err
		}
	}
	if result, err := skills(); err == nil {
		if err := r.Text("Skills: " + summarize(result)); err != nil {
			return err
		}
	}
	return nil
}

// summarize renders a tool result as a short sentence fragment.
func summarize(result any) string {
	s := fmt.Sprintf("%v", result)
	if len(s) > 400 {
		s = s[:400] + "..."
	}
	return s
}
