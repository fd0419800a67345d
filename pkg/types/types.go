// Package types provides shared type definitions for the workflow engine.
// All core data structures used across packages are defined here to avoid circular dependencies.
package types

import (
	"context"
	"time"
)

// ============================================================================
// Context Keys
// ============================================================================

// contextKey is used for context keys to avoid collisions
type contextKey string

const (
	// ContextKeyExecutionID is the context key for the unique execution ID
	ContextKeyExecutionID contextKey = "execution_id"

	// ContextKeyDiagramID is the context key for the diagram ID
	ContextKeyDiagramID contextKey = "diagram_id"
)

// GetExecutionID extracts the execution ID from context.
// Returns empty string if not found in context.
func GetExecutionID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyExecutionID).(string); ok {
		return id
	}
	return ""
}

// GetDiagramID extracts the diagram ID from context.
// Returns empty string if not found in context.
func GetDiagramID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyDiagramID).(string); ok {
		return id
	}
	return ""
}

// ============================================================================
// Node Kinds
// ============================================================================

// NodeKind is the tagged-variant discriminator over the fourteen node
// families the execution core understands.
type NodeKind string

const (
	KindStart               NodeKind = "start"
	KindEnd                 NodeKind = "end"
	KindPersonJob           NodeKind = "person_job"
	KindCodeJob             NodeKind = "code_job"
	KindApiJob              NodeKind = "api_job"
	KindCondition           NodeKind = "condition"
	KindDb                  NodeKind = "db"
	KindTemplateJob         NodeKind = "template_job"
	KindSubDiagram          NodeKind = "sub_diagram"
	KindUserResponse        NodeKind = "user_response"
	KindHook                NodeKind = "hook"
	KindJsonSchemaValidator NodeKind = "json_schema_validator"
	KindTypescriptAst       NodeKind = "typescript_ast"
	KindIntegratedApi       NodeKind = "integrated_api"
)

// AllKinds lists every supported node kind, for registry completeness checks.
func AllKinds() []NodeKind {
	return []NodeKind{
		KindStart, KindEnd, KindPersonJob, KindCodeJob, KindApiJob,
		KindCondition, KindDb, KindTemplateJob, KindSubDiagram,
		KindUserResponse, KindHook, KindJsonSchemaValidator,
		KindTypescriptAst, KindIntegratedApi,
	}
}

// ContentType describes how an edge's transformation rule converts the
// source envelope's body before binding it to the target input.
type ContentType string

const (
	ContentRawText           ContentType = "raw_text"
	ContentObject            ContentType = "object"
	ContentConversationState ContentType = "conversation_state"
)

// ConditionKind discriminates how a Condition node evaluates its output.
type ConditionKind string

const (
	ConditionExpression          ConditionKind = "expression"
	ConditionLLMDecision         ConditionKind = "llm_decision"
	ConditionDetectMaxIterations ConditionKind = "detect_max_iterations"
)

// DbOperation discriminates the Db node's filesystem operation.
type DbOperation string

const (
	DbRead   DbOperation = "read"
	DbWrite  DbOperation = "write"
	DbAppend DbOperation = "append"
)

// HookKind discriminates the Hook node's execution surface.
type HookKind string

const (
	HookShell   HookKind = "shell"
	HookWebhook HookKind = "webhook"
	HookPython  HookKind = "python" // delegates to SandboxPort; no interpreter ships here.
)

// IntegratedProvider names a built-in IntegratedApi provider template.
type IntegratedProvider string

const (
	ProviderNotion IntegratedProvider = "notion"
	ProviderSlack  IntegratedProvider = "slack"
	ProviderGithub IntegratedProvider = "github"
)

// ============================================================================
// Per-kind parameter records
// ============================================================================

// validator is implemented by every parameter record.
type validator interface {
	Validate() error
}

// StartParams configures a Start node: the variables supplied by the
// caller are emitted verbatim as an object envelope on the "default" output.
type StartParams struct {
	Label string `json:"label,omitempty"`
}

func (StartParams) Validate() error { return nil }

// EndParams configures an End node.
type EndParams struct {
	Label      string `json:"label,omitempty"`
	OutputPath string `json:"output_path,omitempty"` // optional: write collected input to file
}

func (EndParams) Validate() error { return nil }

// PersonJobParams configures an LLM-calling node.
type PersonJobParams struct {
	Label           string   `json:"label,omitempty"`
	PersonID        string   `json:"person_id"`
	DefaultPrompt   string   `json:"default_prompt"`
	FirstOnlyPrompt *string  `json:"first_only_prompt,omitempty"`
	MaxIteration    int      `json:"max_iteration"`
	MemorizeTo      *string  `json:"memorize_to,omitempty"`
	AtMost          *int     `json:"at_most,omitempty"`
	IgnorePersons   []string `json:"ignore_persons,omitempty"`
	TextFormat      *string  `json:"text_format,omitempty"` // non-empty requests a structured "object" representation
	Tools           []string `json:"tools,omitempty"`
}

func (p PersonJobParams) Validate() error {
	if p.PersonID == "" {
		return ErrMissingRequiredField("person_id")
	}
	if p.MaxIteration < 1 {
		return ErrInvalidFieldValue("max_iteration", p.MaxIteration, "must be >= 1")
	}
	return nil
}

// CodeJobParams configures a code-evaluation node that delegates to a
// SandboxPort collaborator.
type CodeJobParams struct {
	Label    string `json:"label,omitempty"`
	Language string `json:"language"` // e.g. "python", "typescript", "bash"
	Code     string `json:"code"`
}

func (p CodeJobParams) Validate() error {
	if p.Language == "" {
		return ErrMissingRequiredField("language")
	}
	if p.Code == "" {
		return ErrMissingRequiredField("code")
	}
	return nil
}

// ApiJobParams configures an HTTP request node.
type ApiJobParams struct {
	Label       string            `json:"label,omitempty"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        string            `json:"body,omitempty"`
	TimeoutSecs int               `json:"timeout_seconds,omitempty"`
}

func (p ApiJobParams) Validate() error {
	if p.URL == "" {
		return ErrMissingRequiredField("url")
	}
	if p.Method == "" {
		return ErrMissingRequiredField("method")
	}
	return nil
}

// ConditionParams configures a branch node.
type ConditionParams struct {
	Label         string        `json:"label,omitempty"`
	ConditionKind ConditionKind `json:"condition_type"`
	Expression    string        `json:"expression,omitempty"`
	TargetNodeID  string        `json:"target_node_id,omitempty"` // for detect_max_iterations
	LLMPersonID   string        `json:"llm_person_id,omitempty"`  // for llm_decision
	LLMQuestion   string        `json:"llm_question,omitempty"`
}

func (p ConditionParams) Validate() error {
	switch p.ConditionKind {
	case ConditionExpression:
		if p.Expression == "" {
			return ErrMissingRequiredField("expression")
		}
	case ConditionLLMDecision:
		if p.LLMPersonID == "" {
			return ErrMissingRequiredField("llm_person_id")
		}
	case ConditionDetectMaxIterations:
		if p.TargetNodeID == "" {
			return ErrMissingRequiredField("target_node_id")
		}
	default:
		return ErrInvalidFieldValue("condition_type", p.ConditionKind, "unsupported condition kind")
	}
	return nil
}

// DbParams configures a filesystem read/write/append node.
type DbParams struct {
	Label         string      `json:"label,omitempty"`
	Operation     DbOperation `json:"operation"`
	File          string      `json:"file"` // path or glob
	SerializeJSON bool        `json:"serialize_json,omitempty"`
	Content       string      `json:"content,omitempty"` // for write/append
}

func (p DbParams) Validate() error {
	if p.File == "" {
		return ErrMissingRequiredField("file")
	}
	switch p.Operation {
	case DbRead, DbWrite, DbAppend:
	default:
		return ErrInvalidFieldValue("operation", p.Operation, "must be read, write, or append")
	}
	return nil
}

// TemplateJobParams configures a Jinja2-subset render node.
type TemplateJobParams struct {
	Label      string `json:"label,omitempty"`
	Template   string `json:"template"`
	OutputPath string `json:"output_path,omitempty"`
}

func (p TemplateJobParams) Validate() error {
	if p.Template == "" {
		return ErrMissingRequiredField("template")
	}
	return nil
}

// SubDiagramParams configures a nested-diagram node.
type SubDiagramParams struct {
	Label       string `json:"label,omitempty"`
	DiagramName string `json:"diagram_name"`
	Batch       bool   `json:"batch,omitempty"`
	BatchInput  string `json:"batch_input_key,omitempty"`
	Parallel    bool   `json:"parallel,omitempty"`
}

func (p SubDiagramParams) Validate() error {
	if p.DiagramName == "" {
		return ErrMissingRequiredField("diagram_name")
	}
	return nil
}

// UserResponseParams configures an interactive prompt node.
type UserResponseParams struct {
	Label       string `json:"label,omitempty"`
	PromptText  string `json:"prompt_text"`
	TimeoutSecs int    `json:"timeout_seconds,omitempty"`
}

func (p UserResponseParams) Validate() error {
	if p.PromptText == "" {
		return ErrMissingRequiredField("prompt_text")
	}
	return nil
}

// HookParams configures a shell/webhook/python hook node.
type HookParams struct {
	Label   string   `json:"label,omitempty"`
	Kind    HookKind `json:"hook_kind"`
	Command string   `json:"command,omitempty"` // shell
	URL     string   `json:"url,omitempty"`     // webhook
	Code    string   `json:"code,omitempty"`    // python (SandboxPort)
}

func (p HookParams) Validate() error {
	switch p.Kind {
	case HookShell:
		if p.Command == "" {
			return ErrMissingRequiredField("command")
		}
	case HookWebhook:
		if p.URL == "" {
			return ErrMissingRequiredField("url")
		}
	case HookPython:
		if p.Code == "" {
			return ErrMissingRequiredField("code")
		}
	default:
		return ErrInvalidFieldValue("hook_kind", p.Kind, "unsupported hook kind")
	}
	return nil
}

// JsonSchemaValidatorParams configures a validation node.
type JsonSchemaValidatorParams struct {
	Label  string      `json:"label,omitempty"`
	Schema interface{} `json:"schema"`
	Strict bool        `json:"strict,omitempty"`
}

func (p JsonSchemaValidatorParams) Validate() error {
	if p.Schema == nil {
		return ErrMissingRequiredField("schema")
	}
	return nil
}

// TypescriptAstParams configures a TS-extraction node.
type TypescriptAstParams struct {
	Label   string   `json:"label,omitempty"`
	Extract []string `json:"extract,omitempty"` // subset of {"interfaces","functions","classes","exports"}
}

func (TypescriptAstParams) Validate() error { return nil }

// IntegratedApiParams configures a provider-specific operation node.
type IntegratedApiParams struct {
	Label     string             `json:"label,omitempty"`
	Provider  IntegratedProvider `json:"provider"`
	Operation string             `json:"operation"`
	ApiKeyID  string             `json:"api_key_id,omitempty"`
	Params    map[string]string  `json:"params,omitempty"`
}

func (p IntegratedApiParams) Validate() error {
	switch p.Provider {
	case ProviderNotion, ProviderSlack, ProviderGithub:
	default:
		return ErrInvalidFieldValue("provider", p.Provider, "unsupported provider")
	}
	if p.Operation == "" {
		return ErrMissingRequiredField("operation")
	}
	return nil
}

// ============================================================================
// Node, edge, diagram
// ============================================================================

// NodeID and EdgeID are stable opaque identifiers assigned at authoring time.
type NodeID string
type EdgeID string

// Node is a typed workflow node: a stable ID, its kind, and the kind's
// validated parameter record. Exactly one of the parameter fields is set,
// matching Kind.
type Node struct {
	ID   NodeID   `json:"id"`
	Kind NodeKind `json:"type"`

	Start               *StartParams               `json:"start,omitempty"`
	End                 *EndParams                 `json:"end,omitempty"`
	PersonJob           *PersonJobParams           `json:"person_job,omitempty"`
	CodeJob             *CodeJobParams             `json:"code_job,omitempty"`
	ApiJob              *ApiJobParams              `json:"api_job,omitempty"`
	Condition           *ConditionParams           `json:"condition,omitempty"`
	Db                  *DbParams                  `json:"db,omitempty"`
	TemplateJob         *TemplateJobParams         `json:"template_job,omitempty"`
	SubDiagram          *SubDiagramParams          `json:"sub_diagram,omitempty"`
	UserResponse        *UserResponseParams        `json:"user_response,omitempty"`
	Hook                *HookParams                `json:"hook,omitempty"`
	JsonSchemaValidator *JsonSchemaValidatorParams `json:"json_schema_validator,omitempty"`
	TypescriptAst       *TypescriptAstParams       `json:"typescript_ast,omitempty"`
	IntegratedApi       *IntegratedApiParams       `json:"integrated_api,omitempty"`
}

// Label returns the node's authored label, or "" if none was set.
func (n Node) Label() string {
	switch n.Kind {
	case KindStart:
		if n.Start != nil {
			return n.Start.Label
		}
	case KindEnd:
		if n.End != nil {
			return n.End.Label
		}
	case KindPersonJob:
		if n.PersonJob != nil {
			return n.PersonJob.Label
		}
	case KindCodeJob:
		if n.CodeJob != nil {
			return n.CodeJob.Label
		}
	case KindApiJob:
		if n.ApiJob != nil {
			return n.ApiJob.Label
		}
	case KindCondition:
		if n.Condition != nil {
			return n.Condition.Label
		}
	case KindDb:
		if n.Db != nil {
			return n.Db.Label
		}
	case KindTemplateJob:
		if n.TemplateJob != nil {
			return n.TemplateJob.Label
		}
	case KindSubDiagram:
		if n.SubDiagram != nil {
			return n.SubDiagram.Label
		}
	case KindUserResponse:
		if n.UserResponse != nil {
			return n.UserResponse.Label
		}
	case KindHook:
		if n.Hook != nil {
			return n.Hook.Label
		}
	case KindJsonSchemaValidator:
		if n.JsonSchemaValidator != nil {
			return n.JsonSchemaValidator.Label
		}
	case KindTypescriptAst:
		if n.TypescriptAst != nil {
			return n.TypescriptAst.Label
		}
	case KindIntegratedApi:
		if n.IntegratedApi != nil {
			return n.IntegratedApi.Label
		}
	}
	return ""
}

// MaxIteration returns the node's configured iteration cap, or 1 for node
// kinds without an explicit loop concept (they always run at most once
// per readiness window).
func (n Node) MaxIteration() int {
	if n.Kind == KindPersonJob && n.PersonJob != nil {
		return n.PersonJob.MaxIteration
	}
	return 1
}

// Validate dispatches to the parameter record's own Validate method and
// verifies exactly one parameter record is populated for Kind.
func (n Node) Validate() error {
	var present []validator
	if n.Start != nil {
		present = append(present, *n.Start)
	}
	if n.End != nil {
		present = append(present, *n.End)
	}
	if n.PersonJob != nil {
		present = append(present, *n.PersonJob)
	}
	if n.CodeJob != nil {
		present = append(present, *n.CodeJob)
	}
	if n.ApiJob != nil {
		present = append(present, *n.ApiJob)
	}
	if n.Condition != nil {
		present = append(present, *n.Condition)
	}
	if n.Db != nil {
		present = append(present, *n.Db)
	}
	if n.TemplateJob != nil {
		present = append(present, *n.TemplateJob)
	}
	if n.SubDiagram != nil {
		present = append(present, *n.SubDiagram)
	}
	if n.UserResponse != nil {
		present = append(present, *n.UserResponse)
	}
	if n.Hook != nil {
		present = append(present, *n.Hook)
	}
	if n.JsonSchemaValidator != nil {
		present = append(present, *n.JsonSchemaValidator)
	}
	if n.TypescriptAst != nil {
		present = append(present, *n.TypescriptAst)
	}
	if n.IntegratedApi != nil {
		present = append(present, *n.IntegratedApi)
	}

	if len(present) != 1 {
		return ErrInvalidFieldValue("kind", n.Kind, "exactly one parameter record must be set")
	}
	return present[0].Validate()
}

// Edge is a raw, author-facing connection between two node handles.
type Edge struct {
	ID              EdgeID      `json:"id"`
	SourceNodeID    NodeID      `json:"source_node_id"`
	SourceOutputKey string      `json:"source_output_key"`
	TargetNodeID    NodeID      `json:"target_node_id"`
	TargetInputKey  string      `json:"target_input_key"`
	ContentType     ContentType `json:"content_type,omitempty"`
	VariableLabel   string      `json:"label,omitempty"` // rename: bind under this name instead of TargetInputKey
}

// Diagram is the raw, author-facing payload a DiagramRepositoryPort
// returns. The compiler turns it into an ExecutableDiagram.
type Diagram struct {
	Name  string `json:"name,omitempty"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ============================================================================
// Execution options
// ============================================================================

// Options are the knobs a caller passes to start_execution.
type Options struct {
	Variables         map[string]interface{} `json:"variables,omitempty"`
	DebugMode         bool                    `json:"debug_mode,omitempty"`
	MaxIterations     int                     `json:"max_iterations,omitempty"`
	TimeoutSeconds    int                     `json:"timeout_seconds,omitempty"`
	ConcurrencyLimit  int                     `json:"concurrency_limit,omitempty"`
	ContinueOnError   bool                    `json:"continue_on_error,omitempty"`
	DiagramSourcePath string                  `json:"diagram_source_path,omitempty"`
}

// WithDefaults returns a copy of o with zero-valued fields replaced by the
// documented defaults (max_iterations=100, timeout_seconds=300).
func (o Options) WithDefaults() Options {
	if o.MaxIterations == 0 {
		o.MaxIterations = 100
	}
	if o.TimeoutSeconds == 0 {
		o.TimeoutSeconds = 300
	}
	return o
}

// Timeout returns the execution-level wall clock timeout as a duration.
func (o Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}
