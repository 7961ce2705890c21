package transport

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Router dispatches writes to a driver chosen by the address scheme
// ("spi:0", "ddp:10.0.0.7", "ws:10.0.0.7"). Addresses without a known
// scheme go to the default driver. The scheme is stripped before the
// driver sees the address.
type Router struct {
	Default string

	mu      sync.RWMutex
	drivers map[string]Driver
}

func NewRouter(def string) *Router {
	return &Router{Default: def, drivers: map[string]Driver{}}
}

func (r *Router) Handle(scheme string, d Driver) {
	r.mu.Lock()
	r.drivers[scheme] = d
	r.mu.Unlock()
}

// Resolve returns the driver and driver-local address for addr.
func (r *Router) Resolve(addr string) (Driver, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if scheme, rest, ok := strings.Cut(addr, ":"); ok {
		if d, ok := r.drivers[scheme]; ok {
			if rest == "" {
				return nil, "", fmt.Errorf("%w: %q", ErrBadAddress, addr)
			}
			return d, rest, nil
		}
	}
	if d, ok := r.drivers[r.Default]; ok {
		return d, addr, nil
	}
	return nil, "", fmt.Errorf("%w: %q", ErrNoDriver, addr)
}

func (r *Router) Write(addr string, pixels []byte) error {
	d, target, err := r.Resolve(addr)
	if err != nil {
		return err
	}
	return d.Write(target, pixels)
}

// Close closes every registered driver once.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[Driver]bool{}
	var errs []error
	for _, d := range r.drivers {
		if seen[d] {
			continue
		}
		seen[d] = true
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
