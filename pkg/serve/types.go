package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/autogroup/pkg/normalize"
	"github.com/praetorian-inc/autogroup/pkg/suggest"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

// Request types.
const (
	TypeReady        = "ready"
	TypeResolve      = "resolve"
	TypeResolveBatch = "resolve_batch"
	TypeSuggest      = "suggest"
	TypeValidate     = "validate"
	TypeClose        = "close"
	TypeDecode       = "decode" // malformed request line
	TypeUnknown      = "unknown"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ResolvePayload is the payload for "resolve" and "suggest" requests
type ResolvePayload struct {
	URL string `json:"url"`
}

// ResolveBatchPayload is the payload for "resolve_batch" requests
type ResolveBatchPayload struct {
	URLs []string `json:"urls"`
}

// ValidatePayload carries a stored configuration in any format the
// normalizer accepts: an array, JSON text, or a compressed string.
type ValidatePayload struct {
	Config json.RawMessage `json:"config"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string `json:"version"`
	Groups  int    `json:"groups"`
}

// ResolveResult is the winning group for one URL. Group is null when no
// configuration claims the URL.
type ResolveResult struct {
	URL     string                    `json:"url"`
	Group   *types.GroupConfiguration `json:"group"`
	Pattern string                    `json:"pattern,omitempty"`
	Score   int                       `json:"score,omitempty"`
}

// ResolveBatchResult holds one result per requested URL, in order.
type ResolveBatchResult struct {
	Results []ResolveResult `json:"results"`
}

// SuggestResult lists pattern suggestions for a URL.
type SuggestResult struct {
	URL     string           `json:"url"`
	Options []suggest.Option `json:"options"`
}

// ValidationIssue is one problem reported by "validate".
type ValidationIssue struct {
	Index   int    `json:"index"`
	GroupID string `json:"groupId,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ValidateResult summarizes a decoded configuration.
type ValidateResult struct {
	Format    normalize.Format           `json:"format"`
	Valid     bool                       `json:"valid"`
	Groups    []types.GroupConfiguration `json:"groups"`
	Upgrades  []string                   `json:"upgrades,omitempty"`
	Malformed string                     `json:"malformed,omitempty"`
	Issues    []ValidationIssue          `json:"issues,omitempty"`
}
