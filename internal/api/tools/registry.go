package tools

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Tool pairs a function declaration the model sees with the handler that
// runs when the model calls it. Handlers are pure request to result: args in,
// a JSON-shaped map out.
type Tool struct {
	Declaration *genai.FunctionDeclaration
	Run         func(ctx context.Context, args map[string]any) (map[string]any, error)
}

// ChatEnabled names the subset of the registry the conversational assistant
// may call. The rest stay registered for other callers.
var ChatEnabled = []string{weatherToolName, eventsToolName}

// Registry holds every registered tool. Registration order is preserved so
// declarations reach the model in a stable order.
type Registry struct {
	tools map[string]*Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

func (r *Registry) Register(t *Tool) {
	name := t.Declaration.Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Declarations returns the function declarations for the named tools only.
// The chat route enables a subset of the registry per conversation.
func (r *Registry) Declarations(names ...string) []*genai.FunctionDeclaration {
	var decls []*genai.FunctionDeclaration
	for _, name := range r.order {
		for _, want := range names {
			if name == want {
				decls = append(decls, r.tools[name].Declaration)
			}
		}
	}
	return decls
}

// Invoke runs the named tool. Unknown names are an error the caller reports
// back to the model as a failed tool result.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t.Run(ctx, args)
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func boolArg(args map[string]any, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return false
}
