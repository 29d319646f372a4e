package util

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://plain:8080", "http://secure:8443")

	httpsReq, _ := http.NewRequest(http.MethodGet, "https://api.openai.com/v1", nil)
	u, err := proxy(httpsReq)
	require.NoError(t, err)
	assert.Equal(t, "secure:8443", u.Host)

	httpReq, _ := http.NewRequest(http.MethodGet, "http://localhost:11434/api/generate", nil)
	u, err = proxy(httpReq)
	require.NoError(t, err)
	assert.Equal(t, "plain:8080", u.Host)
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(5*time.Second, "", "")
	assert.Equal(t, 5*time.Second, c.Timeout)
	require.NotNil(t, c.Transport)
}
