// Package pxeconfig derives the PXE server's network parameters and boot
// profiles, persists the server configuration between runs, and renders the
// dhcpd.conf handed to the container.
package pxeconfig
