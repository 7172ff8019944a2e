package network

import (
	"context"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

var (
	linkList   = netlink.LinkList
	linkByName = netlink.LinkByName
	addrList   = netlink.AddrList
)

// NetlinkSource reads links and addresses directly from the kernel.
type NetlinkSource struct{}

var _ LinkSource = NetlinkSource{}

func (NetlinkSource) Links(_ context.Context) ([]Interface, error) {
	links, err := linkList()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		if attrs == nil {
			continue
		}
		iface := Interface{
			Name: attrs.Name,
			Up:   attrs.Flags&net.FlagUp != 0 || attrs.OperState == netlink.OperUp,
		}
		if len(attrs.HardwareAddr) > 0 {
			iface.MAC = attrs.HardwareAddr.String()
		}
		out = append(out, iface)
	}
	return out, nil
}

func (NetlinkSource) IPv4(_ context.Context, name string) (string, error) {
	addrs, err := interfaceAddrs(name)
	if err != nil {
		return "", err
	}
	for _, addr := range addrs {
		return addr.String(), nil
	}
	return "", nil
}

// HasAddress reports whether ip is currently assigned to name.
func HasAddress(name, ip string) (bool, error) {
	want := net.ParseIP(ip)
	if want == nil {
		return false, fmt.Errorf("invalid address %q", ip)
	}
	addrs, err := interfaceAddrs(name)
	if err != nil {
		return false, err
	}
	for _, addr := range addrs {
		if addr.Equal(want) {
			return true, nil
		}
	}
	return false, nil
}

func interfaceAddrs(name string) ([]net.IP, error) {
	link, err := linkByName(name)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", name, err)
	}
	addrs, err := addrList(link, unix.AF_INET)
	if err != nil {
		return nil, fmt.Errorf("list addresses on %s: %w", name, err)
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, addr := range addrs {
		if addr.IPNet == nil || addr.IP.To4() == nil {
			continue
		}
		ips = append(ips, addr.IP)
	}
	return ips, nil
}
