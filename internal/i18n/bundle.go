// Package i18n holds the storefront's localized message catalogs and picks
// a locale for each request.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the catalog every other locale falls back to.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle contains the message catalogs of every supported locale.
type Bundle struct {
	locales map[string]map[Key]string
	tags    []language.Tag
	matcher language.Matcher
}

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
)

// Default returns the process-wide bundle built from the embedded catalogs.
func Default() *Bundle {
	defaultOnce.Do(func() {
		b, err := LoadEmbedded()
		if err != nil {
			panic(fmt.Sprintf("i18n: load embedded catalogs: %v", err))
		}
		defaultBundle = b
	})
	return defaultBundle
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads every locales/*.yaml file from fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{locales: make(map[string]map[Key]string, len(paths))}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		if err := b.add(p, data); err != nil {
			return nil, err
		}
	}

	if _, ok := b.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// The base locale goes first so the matcher falls back to it.
	b.tags = append(b.tags, language.MustParse(BaseLocale))
	for _, locale := range b.Locales() {
		if locale != BaseLocale {
			b.tags = append(b.tags, language.MustParse(locale))
		}
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func (b *Bundle) add(p string, data []byte) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog %s: %w", p, err)
	}

	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", p)
	}
	if fromPath := strings.TrimSuffix(path.Base(p), path.Ext(p)); locale != fromPath {
		return fmt.Errorf("catalog %s: locale %q must match file name %q", p, locale, fromPath)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", p, err)
	}
	if tag.String() != locale {
		return fmt.Errorf("catalog %s: locale %q is not canonical (want %q)", p, locale, tag.String())
	}
	if _, dup := b.locales[locale]; dup {
		return fmt.Errorf("catalog %s: locale %s defined twice", p, locale)
	}

	messages := make(map[Key]string, len(file.Messages))
	for raw, text := range file.Messages {
		key := Key(raw)
		if !key.Valid() {
			return fmt.Errorf("catalog %s: unknown key %q", p, raw)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		messages[key] = text
	}
	b.locales[locale] = messages
	return nil
}

// Locales returns the supported locale names, sorted.
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.locales))
	for l := range b.locales {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether a catalog exists for locale.
func (b *Bundle) Supports(locale string) bool {
	_, ok := b.locales[locale]
	return ok
}

// T returns the text for key in locale. It falls back to the base locale
// and then to the key's default text.
func (b *Bundle) T(locale string, key Key) string {
	if msg, ok := b.locales[locale][key]; ok {
		return msg
	}
	if msg, ok := b.locales[BaseLocale][key]; ok {
		return msg
	}
	return key.Default()
}

// Translate localizes a raw key and returns fallback for unknown keys.
func (b *Bundle) Translate(locale, key, fallback string) string {
	k := Key(key)
	if !k.Valid() {
		return fallback
	}
	return b.T(locale, k)
}

// Messages returns the complete table for locale with fallbacks applied.
func (b *Bundle) Messages(locale string) map[Key]string {
	out := make(map[Key]string, len(defaults))
	for key := range defaults {
		out[key] = b.T(locale, key)
	}
	return out
}

// Match returns the supported tag closest to the given preferences, or the
// base locale when nothing is close enough.
func (b *Bundle) Match(preferred ...language.Tag) language.Tag {
	if len(preferred) == 0 {
		return b.tags[0]
	}
	_, idx, conf := b.matcher.Match(preferred...)
	if conf == language.No {
		return b.tags[0]
	}
	return b.tags[idx]
}

// Parse matches a single locale string against the supported set.
func (b *Bundle) Parse(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Und, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := b.matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return b.tags[idx], true
}
