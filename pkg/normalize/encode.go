package normalize

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/praetorian-inc/autogroup/pkg/conflict"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

// Encode renders groups in the current wire format:
// base64(LZMA(JSON array)).
func Encode(groups []types.GroupConfiguration) (string, error) {
	data, err := json.Marshal(canonical(groups))
	if err != nil {
		return "", fmt.Errorf("encoding configuration: %w", err)
	}
	compressed, err := compress(data)
	if err != nil {
		return "", fmt.Errorf("compressing configuration: %w", err)
	}
	return base64.StdEncoding.EncodeToString(compressed), nil
}

// EncodeForSave prepares groups for persistence and encodes them.
func EncodeForSave(groups []types.GroupConfiguration) (string, error) {
	return Encode(PrepareForSave(groups))
}

// PrepareForSave returns a copy of groups in which conflict markers are
// dropped from titles whose unmarked form no other group holds. Markers
// are never added here.
func PrepareForSave(groups []types.GroupConfiguration) []types.GroupConfiguration {
	out := types.CloneGroups(groups)

	held := make(map[string]bool, len(out))
	for _, g := range out {
		held[g.Title] = true
	}
	for i := range out {
		if !conflict.HasMarker(out[i].Title) {
			continue
		}
		plain := conflict.WithoutMarker(out[i].Title)
		if held[plain] {
			continue
		}
		out[i].Title = plain
		held[plain] = true
	}
	return out
}

// canonical substitutes empty slices for nil ones so the document always
// holds arrays.
func canonical(groups []types.GroupConfiguration) []types.GroupConfiguration {
	out := make([]types.GroupConfiguration, len(groups))
	copy(out, groups)
	for i := range out {
		if out[i].Matchers == nil {
			out[i].Matchers = []types.Matcher{}
		}
	}
	return out
}
