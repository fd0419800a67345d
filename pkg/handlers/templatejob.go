package handlers

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/types"
)

// TemplateJobHandler renders a Jinja2-subset template against the node's
// resolved inputs. No templating library appears anywhere in the
// example corpus, and Go's text/template syntax doesn't match the
// {{var}}/{% if %}/{% for %} surface without an adapter layer, so this
// is a small hand-written tokenizer supporting variable interpolation,
// {% if cond %}...{% endif %}, and {% for item in list %}...{% endfor %}.
type TemplateJobHandler struct{}

func (h *TemplateJobHandler) Kind() types.NodeKind { return types.KindTemplateJob }

var (
	varPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)
	ifPattern  = regexp.MustCompile(`(?s)\{%\s*if\s+([a-zA-Z0-9_.]+)\s*%\}(.*?)\{%\s*endif\s*%\}`)
	forPattern = regexp.MustCompile(`(?s)\{%\s*for\s+(\w+)\s+in\s+([a-zA-Z0-9_.]+)\s*%\}(.*?)\{%\s*endfor\s*%\}`)
)

func (h *TemplateJobHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.TemplateJob
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("template_job")
	}

	vars := inputsAsObject(ctx.Inputs())
	for k, v := range ctx.Variables() {
		if _, exists := vars[k]; !exists {
			vars[k] = v
		}
	}

	rendered, err := renderTemplate(p.Template, vars)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("template_job %s: %w", node.ID, err)
	}

	if p.OutputPath != "" {
		if err := os.WriteFile(p.OutputPath, []byte(rendered), 0o644); err != nil {
			return envelope.Envelope{}, fmt.Errorf("template_job %s: write %s: %w", node.ID, p.OutputPath, err)
		}
	}

	return envelope.NewText(rendered), nil
}

func (h *TemplateJobHandler) Validate(node types.Node) error {
	return nil
}

func renderTemplate(tpl string, vars map[string]interface{}) (string, error) {
	tpl = forPattern.ReplaceAllStringFunc(tpl, func(block string) string {
		m := forPattern.FindStringSubmatch(block)
		itemName, listName, body := m[1], m[2], m[3]
		list, _ := lookupVar(vars, listName).([]interface{})
		var sb strings.Builder
		for _, item := range list {
			itemVars := make(map[string]interface{}, len(vars)+1)
			for k, v := range vars {
				itemVars[k] = v
			}
			itemVars[itemName] = item
			rendered, _ := renderTemplate(body, itemVars)
			sb.WriteString(rendered)
		}
		return sb.String()
	})

	tpl = ifPattern.ReplaceAllStringFunc(tpl, func(block string) string {
		m := ifPattern.FindStringSubmatch(block)
		cond, body := m[1], m[2]
		if isTruthy(lookupVar(vars, cond)) {
			rendered, _ := renderTemplate(body, vars)
			return rendered
		}
		return ""
	})

	tpl = varPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		v := lookupVar(vars, name)
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	})

	return tpl, nil
}

func lookupVar(vars map[string]interface{}, path string) interface{} {
	parts := strings.Split(path, ".")
	var cur interface{} = vars
	for _, part := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

func isTruthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
