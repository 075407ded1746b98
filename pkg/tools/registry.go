package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// registry is the global, sealed tool catalog. Tools register at init time;
// the first Provider seals the registry so the catalog is fixed for the run.
type registry struct {
	mu     sync.RWMutex
	sealed bool
	tools  map[string]Tool
}

//nolint:gochecknoglobals // single catalog per process, sealed before use
var globalRegistry = &registry{tools: make(map[string]Tool)}

// Register adds a tool to the global catalog. Panics if called after the
// registry is sealed or on a duplicate name.
func Register(t Tool) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	name := canonicalName(t.Name())
	if globalRegistry.sealed {
		panic(fmt.Sprintf("tool registry sealed - cannot register tool %q", name))
	}
	if _, exists := globalRegistry.tools[name]; exists {
		panic(fmt.Sprintf("tool %q registered twice", name))
	}
	globalRegistry.tools[name] = t
}

// Seal prevents further registrations. Called automatically by NewProvider.
func Seal() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.sealed = true
}

// canonicalName lowercases and trims a tool name so lookups tolerate the
// oracle's casing and whitespace variance.
func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Provider exposes the subset of the catalog one agent may use.
type Provider struct {
	allowed map[string]struct{}
}

// NewProvider creates a provider limited to the named tools. Tools that
// require authorization must be listed explicitly; the rest of the catalog
// is implied by an empty allow list.
func NewProvider(authorizedTools []string) *Provider {
	Seal()

	allowed := make(map[string]struct{}, len(authorizedTools))
	for _, name := range authorizedTools {
		allowed[canonicalName(name)] = struct{}{}
	}
	return &Provider{allowed: allowed}
}

// Get resolves a tool by name, case and whitespace insensitively. Returns an
// error for unknown tools and for authorization-gated tools the agent was
// not granted.
func (p *Provider) Get(name string) (Tool, error) {
	canonical := canonicalName(name)

	globalRegistry.mu.RLock()
	t, exists := globalRegistry.tools[canonical]
	globalRegistry.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("tool %q not registered", canonical)
	}
	if t.RequiresAuthorization() {
		if _, ok := p.allowed[canonical]; !ok {
			return nil, fmt.Errorf("tool %q not authorized for this agent", canonical)
		}
	}
	return t, nil
}

// List returns the tools this provider can dispatch to, sorted by name.
func (p *Provider) List() []Tool {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	var out []Tool
	for name, t := range globalRegistry.tools {
		if t.RequiresAuthorization() {
			if _, ok := p.allowed[name]; !ok {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Catalog renders the tool list for inclusion in a prompt.
func (p *Provider) Catalog() string {
	var b strings.Builder
	for _, t := range p.List() {
		fmt.Fprintf(&b, "%s: %s\n", t.Name(), t.Description())
	}
	return b.String()
}
