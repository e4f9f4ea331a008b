// Package deviceinfo captures the identity of the device running the
// scanner, recorded once in the history header so stored verdicts can be
// traced back to the machine that produced them.
package deviceinfo

import (
	"github.com/shirou/gopsutil/v4/host"
)

type DeviceInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
}

// Collect gathers host identity via gopsutil.
func Collect() (*DeviceInfo, error) {
	info, err := host.Info()
	if err != nil {
		return nil, err
	}
	return &DeviceInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
	}, nil
}
