package pxeconfig

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveServerConfig(t *testing.T) {
	t.Parallel()

	cfg, err := DeriveServerConfig("eth0", "10.0.5.9")
	require.NoError(t, err)
	assert.Equal(t, ServerConfig{
		Interface:  "eth0",
		ServerIP:   "10.0.5.9",
		Subnet:     "10.0.5.0",
		Netmask:    "255.255.255.0",
		Router:     "10.0.5.9",
		DNS:        "10.0.5.9",
		RangeStart: "10.0.5.201",
		RangeEnd:   "10.0.5.240",
	}, cfg)
	assert.Equal(t, 24, cfg.PrefixLength())
}

func TestDeriveServerConfigSharesFirstThreeOctets(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		ip := fmt.Sprintf("%d.%d.%d.%d", rng.Intn(256), rng.Intn(256), rng.Intn(256), rng.Intn(256))
		cfg, err := DeriveServerConfig("enp1s0", ip)
		require.NoError(t, err, ip)

		prefix := ip[:strings.LastIndex(ip, ".")+1]
		assert.Equal(t, prefix+"0", cfg.Subnet, ip)
		assert.Equal(t, prefix+"201", cfg.RangeStart, ip)
		assert.Equal(t, prefix+"240", cfg.RangeEnd, ip)
		assert.Equal(t, "255.255.255.0", cfg.Netmask, ip)
	}
}

func TestDeriveServerConfigRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		iface string
		ip    string
	}{
		{name: "garbage", iface: "eth0", ip: "not-an-ip"},
		{name: "ipv6", iface: "eth0", ip: "fd00::1"},
		{name: "octet overflow", iface: "eth0", ip: "192.168.0.256"},
		{name: "missing interface", iface: "", ip: "192.168.0.1"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := DeriveServerConfig(tc.iface, tc.ip)
			assert.Error(t, err)
		})
	}
}

func TestDefaultServerIP(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "10.1.2.3", DefaultServerIP("10.1.2.3", "192.168.0.1"))
	assert.Equal(t, "192.168.0.1", DefaultServerIP("", "192.168.0.1"))
	assert.Equal(t, "192.168.0.1", DefaultServerIP("--", "192.168.0.1"))
}
