package common

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OptionCatalog describes the control options the UI can edit, grouped
// the way the game groups them. Options absent from Labels still get a
// readable label derived from their name.
type OptionCatalog struct {
	Groups map[string][]string `yaml:"Groups" json:"groups"`
	Labels map[string]string   `yaml:"Labels" json:"labels"`
}

// Caser that returns Title case for a string.
var titleCaser = cases.Title(language.AmericanEnglish)

func TitleCaser(text string) string {
	return titleCaser.String(text)
}

// Label returns the display label for an option name
func (c *OptionCatalog) Label(name string) string {
	if label, found := c.Labels[name]; found {
		return label
	}
	return TitleCaser(strings.ReplaceAll(name, "_", " "))
}

// KnownNames returns the set of option names listed in any group
func (c *OptionCatalog) KnownNames() Set {
	known := make(Set)
	for _, names := range c.Groups {
		for _, name := range names {
			known[name] = true
		}
	}
	return known
}

// GroupNames returns the group names sorted
func (c *OptionCatalog) GroupNames() []string {
	names := make([]string, 0, len(c.Groups))
	for name := range c.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
