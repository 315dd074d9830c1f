package meta

import "sync/atomic"

// ServiceInfo identifies the running service.
type ServiceInfo struct {
	Name    string
	Version string
}

var service atomic.Pointer[ServiceInfo] //nolint:gochecknoglobals // set once at startup, read everywhere

// SetServiceInfo records the service name and version.
// Only the first call takes effect.
func SetServiceInfo(name, version string) {
	service.CompareAndSwap(nil, &ServiceInfo{Name: name, Version: version})
}

// Service returns the recorded service info, or the zero value before SetServiceInfo.
func Service() ServiceInfo {
	if s := service.Load(); s != nil {
		return *s
	}
	return ServiceInfo{}
}
