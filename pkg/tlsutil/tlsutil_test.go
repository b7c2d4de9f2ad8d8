package tlsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerTLSConfig_MissingFiles(t *testing.T) {
	_, err := ServerTLSConfig("/nonexistent/server.pem", "/nonexistent/server-key.pem")
	assert.Error(t, err)
}

func TestClientTLSConfig(t *testing.T) {
	creds, err := ClientTLSConfig("")
	require.NoError(t, err)
	assert.Equal(t, "tls", creds.Info().SecurityProtocol)

	bad := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a certificate"), 0o600))
	_, err = ClientTLSConfig(bad)
	assert.Error(t, err)
}
