package emit

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/cloudflavor/skygen/pkg/naming"
)

// DefaultVersion is used when no usable version is configured
const DefaultVersion = "0.1.0"

// DefaultEdition is the language edition written into the crate manifest
const DefaultEdition = "2021"

// defaultKeywords are appended to every project's keywords
var defaultKeywords = []string{"api", "openapiv3", "openapi", "sdk"}

// Project describes the crate the bundle is rendered into
type Project struct {
	Name        string   `json:"name" yaml:"name"`
	Version     string   `json:"version" yaml:"version"`
	Edition     string   `json:"edition" yaml:"edition"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Authors     []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	APIURL      string   `json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`
}

// Normalize fills defaults and cleans up the name and version. The name
// becomes a kebab-case crate name; an unusable version falls back to
// DefaultVersion with a warning.
func (p Project) Normalize(logger *slog.Logger) Project {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	out := p
	out.Name = CrateName(p.Name)
	if out.Name == "" {
		out.Name = "sdk"
	}
	if out.Edition == "" {
		out.Edition = DefaultEdition
	}

	version, ok := SanitizeVersion(p.Version)
	if !ok {
		logger.Warn("invalid project version, using default", "version", p.Version, "default", DefaultVersion)
	} else if version != strings.TrimSpace(p.Version) {
		logger.Debug("normalized project version", "from", p.Version, "to", version)
	}
	out.Version = version

	out.Keywords = nil
	for _, kw := range append(slices.Clone(p.Keywords), defaultKeywords...) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && !slices.Contains(out.Keywords, kw) {
			out.Keywords = append(out.Keywords, kw)
		}
	}
	return out
}

// CrateName turns a display name into a kebab-case crate name
func CrateName(name string) string {
	return strings.ReplaceAll(naming.SnakeCase(name), "_", "-")
}

// SanitizeVersion turns a loosely written version into semver. A leading
// v is dropped and missing minor or patch components are padded with
// zeros, keeping any pre-release and build metadata. The second result is
// false when the input could not be parsed and DefaultVersion is returned.
func SanitizeVersion(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	if s == "" {
		return DefaultVersion, false
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return DefaultVersion, false
	}
	return v.String(), true
}
