package suggest

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Message keys.
const (
	MsgChromeExtensions      = "chrome.extensions"
	MsgChromeDownloads       = "chrome.downloads"
	MsgChromeHistory         = "chrome.history"
	MsgChromeBookmarks       = "chrome.bookmarks"
	MsgChromeApps            = "chrome.apps"
	MsgChromeFlags           = "chrome.flags"
	MsgChromeSettings        = "chrome.settings"
	MsgChromeSettingsSection = "chrome.settingsSection"
	MsgChromeNewtab          = "chrome.newtab"
	MsgChromePage            = "chrome.page"
	MsgChromeAll             = "chrome.all"
	MsgChromeExactURL        = "chrome.exactURL"

	MsgExtensionHost     = "extension.host"
	MsgExtensionAll      = "extension.all"
	MsgExtensionExactURL = "extension.exactURL"

	MsgFileAll         = "file.all"
	MsgFileDirname     = "file.dirname"
	MsgFileThisFolder  = "file.thisFolder"
	MsgFileExactFile   = "file.exactFile"
	MsgFileExactFolder = "file.exactFolder"

	MsgGenericExactURL = "generic.exactURL"

	MsgHTTPPath       = "http.path"
	MsgHTTPDomain     = "http.domain"
	MsgHTTPWWWOnly    = "http.wwwOnly"
	MsgHTTPBaseDomain = "http.baseDomain"
)

//go:embed messages/en.yml
var englishYAML []byte

// Catalog maps message keys to localized text.
type Catalog struct {
	messages map[string]string
}

type catalogFile struct {
	Messages map[string]string `yaml:"messages"`
}

// LoadCatalog parses a YAML document with a top-level "messages" mapping.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing message catalog: %w", err)
	}
	if len(f.Messages) == 0 {
		return nil, fmt.Errorf("message catalog has no messages")
	}
	return &Catalog{messages: f.Messages}, nil
}

var english = sync.OnceValue(func() *Catalog {
	c, err := LoadCatalog(englishYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded English catalog: %v", err))
	}
	return c
})

// English returns the built-in English catalog.
func English() *Catalog {
	return english()
}

// Message returns the text for key with each "%s" replaced by the next
// argument. Unknown keys render as the key itself.
func (c *Catalog) Message(key string, args ...string) string {
	msg, ok := c.messages[key]
	if !ok {
		return key
	}
	for _, arg := range args {
		msg = strings.Replace(msg, "%s", arg, 1)
	}
	return msg
}

// Len returns the number of messages in the catalog.
func (c *Catalog) Len() int {
	return len(c.messages)
}
