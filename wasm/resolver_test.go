//go:build wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"testing"

	"github.com/praetorian-inc/autogroup/pkg/serve"
)

const configJSON = `[{"id":"11111111-1111-4111-8111-111111111111","title":"GitHub","color":"blue","matchers":["github.com"]}]`

func newTestResolver(t *testing.T) int {
	t.Helper()
	result := newResolver(js.Value{}, []js.Value{js.ValueOf(configJSON)})

	resultMap, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("Expected map result, got %T", result)
	}
	if errMsg, hasError := resultMap["error"]; hasError {
		t.Fatalf("Failed to create resolver: %v", errMsg)
	}
	if resultMap["groups"] != 1 {
		t.Fatalf("Expected 1 group, got %v", resultMap["groups"])
	}
	return resultMap["handle"].(int)
}

// TestResolve tests resolving a URL against a legacy configuration
func TestResolve(t *testing.T) {
	handle := newTestResolver(t)
	defer closeResolver(js.Value{}, []js.Value{js.ValueOf(handle)})

	result := resolve(js.Value{}, []js.Value{js.ValueOf(handle), js.ValueOf("https://github.com/golang/go")})

	resultStr, ok := result.(string)
	if !ok {
		t.Fatalf("Expected string result, got %T: %v", result, result)
	}
	var resolved serve.ResolveResult
	if err := json.Unmarshal([]byte(resultStr), &resolved); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}
	if resolved.Group == nil || resolved.Group.Title != "GitHub" {
		t.Errorf("Expected GitHub, got %+v", resolved.Group)
	}
}

// TestResolveBatch tests resolving several URLs at once
func TestResolveBatch(t *testing.T) {
	handle := newTestResolver(t)
	defer closeResolver(js.Value{}, []js.Value{js.ValueOf(handle)})

	result := resolveBatch(js.Value{}, []js.Value{js.ValueOf(handle), js.ValueOf(`["https://github.com","https://example.com"]`)})

	resultStr, ok := result.(string)
	if !ok {
		t.Fatalf("Expected string result, got %T: %v", result, result)
	}
	var batch serve.ResolveBatchResult
	if err := json.Unmarshal([]byte(resultStr), &batch); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}
	if len(batch.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(batch.Results))
	}
	if batch.Results[1].Group != nil {
		t.Errorf("Expected no group for example.com, got %+v", batch.Results[1].Group)
	}
}

// TestInvalidHandle tests that a closed handle is rejected
func TestInvalidHandle(t *testing.T) {
	handle := newTestResolver(t)
	closeResolver(js.Value{}, []js.Value{js.ValueOf(handle)})

	result := resolve(js.Value{}, []js.Value{js.ValueOf(handle), js.ValueOf("https://github.com")})

	resultMap, ok := result.(map[string]any)
	if !ok || resultMap["error"] == nil {
		t.Fatalf("Expected error for closed handle, got %v", result)
	}
}

// TestEncodeDecode tests the storage format round trip
func TestEncodeDecode(t *testing.T) {
	groupsJSON := `[{"id":"11111111-1111-4111-8111-111111111111","title":"GitHub","color":"blue","options":{"strict":false,"merge":false},"matchers":[{"pattern":"github.com","isRegex":false}]}]`

	encoded, ok := encode(js.Value{}, []js.Value{js.ValueOf(groupsJSON)}).(string)
	if !ok {
		t.Fatal("Expected encoded string")
	}

	result := decode(js.Value{}, []js.Value{js.ValueOf(encoded)})
	var validated serve.ValidateResult
	if err := json.Unmarshal([]byte(result.(string)), &validated); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}
	if !validated.Valid || len(validated.Groups) != 1 {
		t.Errorf("Expected one valid group, got %+v", validated)
	}
}
