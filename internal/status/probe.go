package status

import (
	"io"
	"time"

	"github.com/pin/tftp/v3"
	"github.com/vishvananda/netns"
)

// ProbeResult is the outcome of fetching a file over TFTP.
type ProbeResult struct {
	Address string
	File    string
	Bytes   int64
	Elapsed time.Duration
	Err     error
}

// OK reports whether the file was received.
func (r ProbeResult) OK() bool {
	return r.Err == nil
}

// ProbeTFTP downloads file from addr and discards it.
func ProbeTFTP(addr, file string, timeout time.Duration) (result ProbeResult) {
	result = ProbeResult{Address: addr, File: file}
	started := time.Now()
	defer func() { result.Elapsed = time.Since(started) }()

	client, err := tftp.NewClient(addr)
	if err != nil {
		result.Err = err
		return result
	}
	client.SetTimeout(timeout)
	client.SetRetries(1)

	wt, err := client.Receive(file, "octet")
	if err != nil {
		result.Err = err
		return result
	}
	result.Bytes, result.Err = wt.WriteTo(io.Discard)
	return result
}

// SharesHostNetwork reports whether pid runs in this process's network
// namespace, which is the host's for a container started with --network=host.
func SharesHostNetwork(pid int) (bool, error) {
	self, err := netns.Get()
	if err != nil {
		return false, err
	}
	defer self.Close()

	target, err := netns.GetFromPid(pid)
	if err != nil {
		return false, err
	}
	defer target.Close()
	return self.Equal(target), nil
}
