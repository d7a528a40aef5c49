package i18n

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "mp_lang"
)

// Copy is the user-facing text of the marketplace page.
type Copy struct {
	Title       string `yaml:"title"`
	Placeholder string `yaml:"placeholder"`
	Submit      string `yaml:"submit"`
	Connect     string `yaml:"connect"`
	Empty       string `yaml:"empty"`
}

var builtin = []struct {
	tag  language.Tag
	copy Copy
}{
	{language.Spanish, Copy{
		Title:       "Marketplace",
		Placeholder: "Hola perro",
		Submit:      "Enviar",
		Connect:     "Conectar Mercado Pago",
		Empty:       "Todavía no hay mensajes",
	}},
	{language.English, Copy{
		Title:       "Marketplace",
		Placeholder: "Hello there",
		Submit:      "Send",
		Connect:     "Connect Mercado Pago",
		Empty:       "No messages yet",
	}},
}

// Catalog maps supported languages to page copy. The first language is the default.
type Catalog struct {
	tags    []language.Tag
	copies  []Copy
	matcher language.Matcher
}

// Default returns the built-in catalog (Spanish first, then English).
func Default() *Catalog {
	c := &Catalog{}
	for _, b := range builtin {
		c.tags = append(c.tags, b.tag)
		c.copies = append(c.copies, b.copy)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c
}

// Load returns the built-in catalog with overrides from a YAML file keyed by
// BCP 47 tag. Empty fields keep the built-in text; unknown tags add a language.
// An empty path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read copy file: %w", err)
	}

	var overrides map[string]Copy
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse copy file: %w", err)
	}

	for key, override := range overrides {
		tag, err := language.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q in copy file: %w", key, err)
		}
		if i := c.index(tag); i >= 0 {
			c.copies[i] = merge(c.copies[i], override)
			continue
		}
		c.tags = append(c.tags, tag)
		c.copies = append(c.copies, merge(c.copies[0], override))
	}

	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// DefaultTag returns the fallback language.
func (c *Catalog) DefaultTag() language.Tag {
	return c.tags[0]
}

// Lookup returns the copy for tag, or the default copy when tag is unsupported.
func (c *Catalog) Lookup(tag language.Tag) Copy {
	if i := c.index(tag); i >= 0 {
		return c.copies[i]
	}
	return c.copies[0]
}

// Resolve picks the language for r: the lang query parameter, then the
// language cookie, then Accept-Language. The bool reports whether the choice
// came from the query parameter and should be persisted.
func (c *Catalog) Resolve(r *http.Request) (language.Tag, bool) {
	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, ok := c.parse(v); ok {
			return tag, true
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := c.parse(cookie.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, i, conf := c.matcher.Match(tags...)
			if conf != language.No {
				return c.tags[i], false
			}
		}
	}

	return c.DefaultTag(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Catalog) parse(v string) (language.Tag, bool) {
	tag, err := language.Parse(v)
	if err != nil {
		return language.Tag{}, false
	}
	_, i, conf := c.matcher.Match(tag)
	if conf == language.No {
		return language.Tag{}, false
	}
	return c.tags[i], true
}

func (c *Catalog) index(tag language.Tag) int {
	for i, t := range c.tags {
		if t == tag {
			return i
		}
	}
	return -1
}

func merge(base, override Copy) Copy {
	if override.Title != "" {
		base.Title = override.Title
	}
	if override.Placeholder != "" {
		base.Placeholder = override.Placeholder
	}
	if override.Submit != "" {
		base.Submit = override.Submit
	}
	if override.Connect != "" {
		base.Connect = override.Connect
	}
	if override.Empty != "" {
		base.Empty = override.Empty
	}
	return base
}
