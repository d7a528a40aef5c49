package web

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageTemplate(t *testing.T) {
	tmpl, err := PageTemplate()
	require.NoError(t, err)
	require.NotNil(t, tmpl.Lookup("page.html"))
}
