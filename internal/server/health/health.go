// Package health reports whether the server's dependencies are reachable.
package health

import (
	"context"
	"sort"
	"time"
)

const (
	StatusOK          = "ok"
	StatusError       = "error"
	CheckOK           = "ok"
	CheckUnavailable  = "unavailable"
	defaultCheckLimit = 2 * time.Second
)

// Report is the outcome of running every check. It is served as is.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool { return r.Status == StatusOK }

// CheckFunc returns nil when the dependency is usable.
type CheckFunc func(ctx context.Context) error

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker runs named checks, each bounded by a timeout.
type Checker struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

func NewChecker() *Checker {
	return &Checker{checks: map[string]CheckFunc{}, timeout: defaultCheckLimit}
}

// Add registers a check under name and returns the checker.
func (c *Checker) Add(name string, fn CheckFunc) *Checker {
	c.checks[name] = fn
	return c
}

// AddDatabase registers the "database" check.
func (c *Checker) AddDatabase(db Pinger) *Checker {
	return c.Add("database", db.PingContext)
}

// Names returns the registered check names in order.
func (c *Checker) Names() []string {
	names := make([]string, 0, len(c.checks))
	for n := range c.checks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Check runs all checks. A failed check is reported as "unavailable";
// the error itself is not exposed.
func (c *Checker) Check(ctx context.Context) Report {
	r := Report{Status: StatusOK, Checks: make(map[string]string, len(c.checks))}
	for _, name := range c.Names() {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.checks[name](cctx)
		cancel()

		if err != nil {
			r.Checks[name] = CheckUnavailable
			r.Status = StatusError
			continue
		}
		r.Checks[name] = CheckOK
	}
	return r
}
