package normalize

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/praetorian-inc/autogroup/pkg/group"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

// Format names the persisted representation a value was decoded from.
type Format string

const (
	FormatEmpty      Format = "empty"      // nothing stored yet
	FormatValue      Format = "value"      // an already-decoded array
	FormatJSON       Format = "json"       // plain JSON text
	FormatCompressed Format = "compressed" // base64(LZMA(JSON))
)

// Upgrades applied to legacy documents, as recorded in Report.Upgrades.
const (
	UpgradeOptions      = "options"
	UpgradeMerge        = "options.merge"
	UpgradeMatcherShape = "matchers.shape"
	UpgradeIsRegex      = "matchers.isRegex"
)

// Report describes what decoding found.
type Report struct {
	Format    Format
	Upgrades  []string
	Malformed *MalformedConfigurationError

	// Errors are schema and semantic problems. Index refers to the
	// returned groups; elements that could not be represented at all are
	// reported with Index -1 and dropped.
	Errors group.ValidationErrors
}

// Err returns the malformation or the validation errors, if any.
func (r *Report) Err() error {
	if r.Malformed != nil {
		return r.Malformed
	}
	return r.Errors.Err()
}

// Valid returns the groups that have no validation errors.
func (r *Report) Valid(groups []types.GroupConfiguration) []types.GroupConfiguration {
	invalid := r.Errors.InvalidGroups()
	out := make([]types.GroupConfiguration, 0, len(groups))
	for i, g := range groups {
		if !invalid[i] {
			out = append(out, g)
		}
	}
	return out
}

func (r *Report) upgraded(name string) {
	for _, u := range r.Upgrades {
		if u == name {
			return
		}
	}
	r.Upgrades = append(r.Upgrades, name)
}

type decodeState struct {
	value  any
	report *Report
}

type decodeStep struct {
	name  string
	apply func(*decodeState) error
}

// decodeChain runs in order. Each step is a no-op when its precondition
// does not hold. New formats are appended at the end.
var decodeChain = []decodeStep{
	{name: "json", apply: parseJSONText},
	{name: "compressed", apply: decompressBlob},
	{name: "shape", apply: requireArray},
	{name: "options", apply: defaultOptions},
	{name: "matchers", apply: upgradeMatchers},
}

// Decode converts any persisted representation into canonical groups. It
// never fails: a value that cannot be decoded yields an empty set.
func Decode(raw any) []types.GroupConfiguration {
	groups, _ := DecodeWithReport(raw)
	return groups
}

// DecodeWithReport is Decode with a description of the input's format,
// the upgrades applied and the problems found. Groups failing validation
// are still returned; use Report.Valid to drop them.
func DecodeWithReport(raw any) ([]types.GroupConfiguration, *Report) {
	report := &Report{Format: FormatValue}
	groups := []types.GroupConfiguration{}

	value, err := initialValue(raw)
	if err != nil {
		report.Malformed = &MalformedConfigurationError{Stage: "input", Err: err}
		return groups, report
	}
	if value == nil {
		report.Format = FormatEmpty
		return groups, report
	}

	state := &decodeState{value: value, report: report}
	for _, step := range decodeChain {
		if err := step.apply(state); err != nil {
			report.Malformed = &MalformedConfigurationError{Stage: step.name, Err: err}
			return groups, report
		}
	}

	for i, elem := range state.value.([]any) {
		g, err := toGroup(elem)
		if err != nil {
			report.Errors = append(report.Errors, unrepresentable(i, elem, err)...)
			continue
		}
		report.Errors = append(report.Errors, group.ValidateDocument(len(groups), elem)...)
		groups = append(groups, g)
	}
	report.Errors = mergeErrors(report.Errors, group.Validate(groups))
	return groups, report
}

func initialValue(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return v, nil
	case []byte:
		return initialValue(string(v))
	case json.RawMessage:
		if len(bytes.TrimSpace(v)) == 0 {
			return nil, nil
		}
		doc, err := unmarshalGeneric(v)
		if err != nil {
			return nil, err
		}
		return initialValue(doc)
	case []any:
		// Later steps upgrade groups in place; work on a copy.
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("copying input: %w", err)
		}
		return unmarshalGeneric(data)
	case []types.GroupConfiguration:
		data, err := json.Marshal(canonical(v))
		if err != nil {
			return nil, err
		}
		return unmarshalGeneric(data)
	default:
		return v, nil
	}
}

func parseJSONText(s *decodeState) error {
	text, ok := s.value.(string)
	if !ok {
		return nil
	}
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "[") && !strings.HasPrefix(text, "{") {
		return nil
	}

	v, err := unmarshalGeneric([]byte(text))
	if err != nil {
		return err
	}
	s.value = v
	s.report.Format = FormatJSON
	return nil
}

func decompressBlob(s *decodeState) error {
	text, ok := s.value.(string)
	if !ok {
		return nil
	}

	compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("decoding base64: %w", err)
	}
	data, err := decompress(compressed)
	if err != nil {
		return err
	}
	v, err := unmarshalGeneric(data)
	if err != nil {
		return err
	}
	s.value = v
	s.report.Format = FormatCompressed
	return nil
}

func requireArray(s *decodeState) error {
	if _, ok := s.value.([]any); !ok {
		return fmt.Errorf("expected an array of groups, got %s", describe(s.value))
	}
	return nil
}

func defaultOptions(s *decodeState) error {
	for _, elem := range s.value.([]any) {
		g, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		opts, present := g["options"]
		if !present || opts == nil {
			g["options"] = map[string]any{"strict": false, "merge": false}
			s.report.upgraded(UpgradeOptions)
			continue
		}
		if m, ok := opts.(map[string]any); ok {
			if _, ok := m["merge"]; !ok {
				m["merge"] = false
				s.report.upgraded(UpgradeMerge)
			}
		}
	}
	return nil
}

func upgradeMatchers(s *decodeState) error {
	for _, elem := range s.value.([]any) {
		g, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		matchers, ok := g["matchers"].([]any)
		if !ok {
			continue
		}
		for i, m := range matchers {
			switch v := m.(type) {
			case string:
				matchers[i] = map[string]any{"pattern": v, "isRegex": false}
				s.report.upgraded(UpgradeMatcherShape)
			case map[string]any:
				if _, ok := v["isRegex"]; !ok {
					v["isRegex"] = false
					s.report.upgraded(UpgradeIsRegex)
				}
			}
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func unmarshalGeneric(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("parsing JSON: trailing data after document")
	}
	return v, nil
}

func toGroup(elem any) (types.GroupConfiguration, error) {
	var g types.GroupConfiguration
	if _, ok := elem.(map[string]any); !ok {
		return g, fmt.Errorf("expected an object, got %s", describe(elem))
	}
	data, err := json.Marshal(elem)
	if err != nil {
		return g, err
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return g, err
	}
	if g.Matchers == nil {
		g.Matchers = []types.Matcher{}
	}
	return g, nil
}

// unrepresentable reports an element that cannot become a group. Paths
// are prefixed with the element's position in the stored array.
func unrepresentable(pos int, elem any, cause error) group.ValidationErrors {
	prefix := strconv.Itoa(pos)
	errs := group.ValidateDocument(-1, elem)
	for i := range errs {
		errs[i].Path = strings.TrimSuffix(prefix+"/"+errs[i].Path, "/")
	}
	if len(errs) == 0 {
		errs = group.ValidationErrors{{Index: -1, Path: prefix, Message: cause.Error()}}
	}
	return errs
}

// mergeErrors appends semantic errors not already reported for the same
// group and path by the schema.
func mergeErrors(schema, semantic group.ValidationErrors) group.ValidationErrors {
	type key struct {
		index int
		path  string
	}
	seen := make(map[key]bool, len(schema))
	for _, e := range schema {
		seen[key{e.Index, e.Path}] = true
	}
	out := schema
	for _, e := range semantic {
		if !seen[key{e.Index, e.Path}] {
			out = append(out, e)
		}
	}
	return out
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number, float64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
