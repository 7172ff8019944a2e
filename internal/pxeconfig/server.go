package pxeconfig

import (
	"fmt"
	"net"
	"strings"
)

// Netmask is the only network size the container's DHCP setup supports.
const Netmask = "255.255.255.0"

// ServerConfig is the network configuration of one PXE server run.
type ServerConfig struct {
	Interface  string `ini:"PXE_INTERFACE"`
	ServerIP   string `ini:"PXE_SERVER_IP"`
	Subnet     string `ini:"PXE_SUBNET"`
	Netmask    string `ini:"PXE_NETMASK"`
	Router     string `ini:"PXE_ROUTER"`
	DNS        string `ini:"PXE_DNS"`
	RangeStart string `ini:"PXE_RANGE_START"`
	RangeEnd   string `ini:"PXE_RANGE_END"`
}

// ParseIPv4 returns the dotted-quad form of value or an error when it is not
// an IPv4 address.
func ParseIPv4(value string) (net.IP, error) {
	ip := net.ParseIP(strings.TrimSpace(value))
	if ip == nil {
		return nil, fmt.Errorf("%q is not a valid IP address", value)
	}
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("%q is not an IPv4 address", value)
	}
	return v4, nil
}

// DeriveServerConfig builds the configuration for serving on iface at
// serverIP. Subnet and pool are taken from the address's first three octets.
func DeriveServerConfig(iface, serverIP string) (ServerConfig, error) {
	if strings.TrimSpace(iface) == "" {
		return ServerConfig{}, fmt.Errorf("interface is required")
	}
	ip, err := ParseIPv4(serverIP)
	if err != nil {
		return ServerConfig{}, err
	}
	prefix := fmt.Sprintf("%d.%d.%d.", ip[0], ip[1], ip[2])
	addr := ip.String()
	return ServerConfig{
		Interface:  iface,
		ServerIP:   addr,
		Subnet:     prefix + "0",
		Netmask:    Netmask,
		Router:     addr,
		DNS:        addr,
		RangeStart: prefix + "201",
		RangeEnd:   prefix + "240",
	}, nil
}

// DefaultServerIP picks the address offered to the user: the interface's
// current IPv4 address when it has one, otherwise fallback.
func DefaultServerIP(observed, fallback string) string {
	if _, err := ParseIPv4(observed); err == nil {
		return strings.TrimSpace(observed)
	}
	return fallback
}

// PrefixLength returns the CIDR prefix length of the netmask.
func (c ServerConfig) PrefixLength() int {
	mask := net.IPMask(net.ParseIP(c.Netmask).To4())
	if len(mask) == 0 {
		return 24
	}
	ones, bits := mask.Size()
	if bits == 0 {
		return 24
	}
	return ones
}
