package handlers

import (
	"fmt"
	"regexp"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// TypescriptAstHandler extracts a shallow structural summary (interface,
// function, class, and export names) from TypeScript source text. No
// TypeScript/JS parser exists anywhere in the example corpus; a real
// implementation would shell out to tsc or embed a JS engine, which is
// out of scope here. This is a regexp-based heuristic extractor and is
// intentionally approximate — it does not resolve generics, decorators,
// or nested scopes.
type TypescriptAstHandler struct{}

func (h *TypescriptAstHandler) Kind() types.NodeKind { return types.KindTypescriptAst }

var (
	interfacePattern = regexp.MustCompile(`(?m)^\s*(?:export\s+)?interface\s+(\w+)`)
	functionPattern  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)`)
	classPattern     = regexp.MustCompile(`(?m)^\s*(?:export\s+)?class\s+(\w+)`)
	exportPattern    = regexp.MustCompile(`(?m)^\s*export\s+(?:const|let|var)\s+(\w+)`)
)

func (h *TypescriptAstHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.TypescriptAst
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("typescript_ast")
	}

	source := combineInputs(ctx.Inputs())
	if source == "" {
		return envelope.Envelope{}, fmt.Errorf("typescript_ast %s: no source text provided", node.ID)
	}

	wanted := make(map[string]bool)
	for _, e := range p.Extract {
		wanted[e] = true
	}
	if len(wanted) == 0 {
		wanted["interfaces"] = true
		wanted["functions"] = true
		wanted["classes"] = true
		wanted["exports"] = true
	}

	result := map[string]interface{}{}
	if wanted["interfaces"] {
		result["interfaces"] = extractNames(interfacePattern, source)
	}
	if wanted["functions"] {
		result["functions"] = extractNames(functionPattern, source)
	}
	if wanted["classes"] {
		result["classes"] = extractNames(classPattern, source)
	}
	if wanted["exports"] {
		result["exports"] = extractNames(exportPattern, source)
	}

	return envelope.NewObject(result), nil
}

func extractNames(re *regexp.Regexp, source string) []string {
	matches := re.FindAllStringSubmatch(source, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

func (h *TypescriptAstHandler) Validate(node types.Node) error {
	return nil
}
