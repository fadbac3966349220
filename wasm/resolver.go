//go:build wasm

package main

import (
	"encoding/json"
	"sync"
	"syscall/js"

	"github.com/praetorian-inc/autogroup/pkg/normalize"
	"github.com/praetorian-inc/autogroup/pkg/pattern"
	"github.com/praetorian-inc/autogroup/pkg/serve"
	"github.com/praetorian-inc/autogroup/pkg/suggest"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

var (
	resolvers   = make(map[int][]pattern.CompiledGroup)
	resolversMu sync.RWMutex
	nextID      int

	compiler = sync.OnceValues(func() (*pattern.Compiler, error) {
		return pattern.NewCompiler(0)
	})
)

func errorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func jsonResult(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to marshal result: " + err.Error())
	}
	return string(data)
}

// newResolver compiles a stored configuration in any supported format.
// Invalid groups are dropped.
// JS: AutogroupNewResolver(config) -> {handle, groups} or {error}
func newResolver(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("config argument required")
	}

	c, err := compiler()
	if err != nil {
		return errorResult("failed to create compiler: " + err.Error())
	}
	groups, report := normalize.DecodeWithReport(args[0].String())
	if report.Malformed != nil {
		return errorResult(report.Malformed.Error())
	}
	compiled := pattern.CompileGroups(report.Valid(groups), c.Compile)

	resolversMu.Lock()
	id := nextID
	nextID++
	resolvers[id] = compiled
	resolversMu.Unlock()

	return map[string]any{"handle": id, "groups": len(compiled)}
}

func lookup(handle int) ([]pattern.CompiledGroup, bool) {
	resolversMu.RLock()
	defer resolversMu.RUnlock()
	compiled, ok := resolvers[handle]
	return compiled, ok
}

// resolve returns the winning group for one URL.
// JS: AutogroupResolve(handle, url) -> JSON result or {error}
func resolve(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorResult("handle and url arguments required")
	}
	compiled, ok := lookup(args[0].Int())
	if !ok {
		return errorResult("invalid resolver handle")
	}
	return jsonResult(serve.Resolve(args[1].String(), compiled))
}

// resolveBatch resolves a JSON array of URLs.
// JS: AutogroupResolveBatch(handle, urlsJSON) -> JSON results or {error}
func resolveBatch(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorResult("handle and urlsJSON arguments required")
	}
	compiled, ok := lookup(args[0].Int())
	if !ok {
		return errorResult("invalid resolver handle")
	}

	var urls []string
	if err := json.Unmarshal([]byte(args[1].String()), &urls); err != nil {
		return errorResult("failed to parse urls JSON: " + err.Error())
	}
	out := serve.ResolveBatchResult{Results: make([]serve.ResolveResult, 0, len(urls))}
	for _, u := range urls {
		out.Results = append(out.Results, serve.Resolve(u, compiled))
	}
	return jsonResult(out)
}

// closeResolver releases a resolver.
// JS: AutogroupCloseResolver(handle)
func closeResolver(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("handle argument required")
	}

	handle := args[0].Int()
	resolversMu.Lock()
	_, ok := resolvers[handle]
	delete(resolvers, handle)
	resolversMu.Unlock()

	if !ok {
		return errorResult("invalid resolver handle")
	}
	return nil
}

// suggestPatterns lists pattern suggestions for a URL.
// JS: AutogroupSuggest(url) -> JSON options or {error}
func suggestPatterns(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("url argument required")
	}
	options := suggest.For(args[0].String(), nil)
	if options == nil {
		return errorResult("cannot suggest patterns for " + args[0].String())
	}
	return jsonResult(options)
}

// decode normalizes a stored configuration.
// JS: AutogroupDecode(config) -> JSON validation result
func decode(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("config argument required")
	}
	return jsonResult(serve.Validate(args[0].String()))
}

// encode prepares groups for saving and compresses them.
// JS: AutogroupEncode(groupsJSON) -> encoded string or {error}
func encode(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("groupsJSON argument required")
	}
	var groups []types.GroupConfiguration
	if err := json.Unmarshal([]byte(args[0].String()), &groups); err != nil {
		return errorResult("failed to parse groups JSON: " + err.Error())
	}
	encoded, err := normalize.EncodeForSave(groups)
	if err != nil {
		return errorResult("failed to encode: " + err.Error())
	}
	return encoded
}
