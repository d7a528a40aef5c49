package i18n

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestDefault_SpanishFirst(t *testing.T) {
	c := Default()

	assert.Equal(t, language.Spanish, c.DefaultTag())
	es := c.Lookup(language.Spanish)
	assert.Equal(t, "Hola perro", es.Placeholder)
	assert.Equal(t, "Enviar", es.Submit)
	assert.Equal(t, "Conectar Mercado Pago", es.Connect)

	assert.Equal(t, "Send", c.Lookup(language.English).Submit)
	assert.Equal(t, es, c.Lookup(language.Japanese))
}

func TestResolve(t *testing.T) {
	c := Default()

	tests := []struct {
		name      string
		target    string
		cookie    string
		accept    string
		want      language.Tag
		wantStore bool
	}{
		{"default", "/", "", "", language.Spanish, false},
		{"query param", "/?lang=en", "", "es", language.English, true},
		{"unsupported query falls through", "/?lang=xx", "", "en-US,en;q=0.9", language.English, false},
		{"regional query param", "/?lang=es-AR", "", "en", language.Spanish, true},
		{"unmatched query falls through", "/?lang=fr", "", "en", language.English, false},
		{"cookie", "/", "en", "es", language.English, false},
		{"regional cookie", "/", "es-419", "en", language.Spanish, false},
		{"accept language", "/", "", "en-GB,en;q=0.8", language.English, false},
		{"unmatched accept language", "/", "", "ja", language.Spanish, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}

			got, store := c.Resolve(r)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStore, store)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copy.yaml")
	data := []byte(`
es:
  placeholder: "Escribí algo"
pt-BR:
  submit: "Enviar agora"
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	es := c.Lookup(language.Spanish)
	assert.Equal(t, "Escribí algo", es.Placeholder)
	assert.Equal(t, "Enviar", es.Submit)

	pt := c.Lookup(language.MustParse("pt-BR"))
	assert.Equal(t, "Enviar agora", pt.Submit)
	assert.Equal(t, "Conectar Mercado Pago", pt.Connect)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("es: [not, a, map"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, language.Spanish, c.DefaultTag())
}

func TestSetLanguageCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	SetLanguageCookie(rr, language.English)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, LangCookieName, cookies[0].Name)
	assert.Equal(t, "en", cookies[0].Value)
}
