//go:build unix

package dnsbench

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_nameServersFromResolvConf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolv.conf")
	content := `# generated
nameserver 10.0.0.1
nameserver not-an-address
nameserver 2001:db8::53
search example.org
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	servers := nameServersFromResolvConf(path, DefaultPort)

	assert.Equal(t, []netip.AddrPort{
		netip.MustParseAddrPort("10.0.0.1:53"),
		netip.MustParseAddrPort("[2001:db8::53]:53"),
	}, servers)
}

func Test_nameServersFromResolvConf_missing(t *testing.T) {
	assert.Nil(t, nameServersFromResolvConf(filepath.Join(t.TempDir(), "missing"), DefaultPort))
}
