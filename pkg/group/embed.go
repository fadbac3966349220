package group

import "embed"

// builtinPresetsFS embeds the preset group configurations offered to new
// users.
//
//go:embed presets/*.yml
var builtinPresetsFS embed.FS
