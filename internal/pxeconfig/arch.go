package pxeconfig

import "fmt"

// ClientArch maps a DHCP client system architecture (option 93, RFC 4578) to
// the boot file served to it.
type ClientArch struct {
	Name     string
	Code     uint16
	BootFile string
}

// HexCode renders the code the way dhcpd compares option values, e.g. "00:07".
func (a ClientArch) HexCode() string {
	return fmt.Sprintf("%02x:%02x", a.Code>>8, a.Code&0xff)
}

var (
	ArchEFIx64 = ClientArch{Name: "efi-x86_64", Code: 0x0007, BootFile: "BOOTX64.EFI"}
	ArchBIOS   = ClientArch{Name: "x86-bios", Code: 0x0000, BootFile: "pxelinux.0"}
)

// DefaultArchitectures are matched explicitly in dhcpd.conf; everything else
// falls back to ArchBIOS.BootFile.
func DefaultArchitectures() []ClientArch {
	return []ClientArch{ArchEFIx64}
}

// BootFileFor returns the file a client with code is told to load.
func BootFileFor(archs []ClientArch, code uint16) string {
	for _, a := range archs {
		if a.Code == code {
			return a.BootFile
		}
	}
	return ArchBIOS.BootFile
}
