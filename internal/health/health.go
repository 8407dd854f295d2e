package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DMarby/pixelbench/internal/cache"
	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/storage"
)

const checkInterval = 10 * time.Second
const checkTimeout = 8 * time.Second

const (
	healthy   = "healthy"
	unhealthy = "unhealthy"
	unknown   = "unknown"
)

// Checker is a periodic health checker
type Checker struct {
	Ctx     context.Context
	Storage storage.Provider
	Key     string // Object to fetch from storage. Only needed for checking storage health
	Cache   cache.Provider
	Log     *logger.Logger

	status Status
	mutex  sync.RWMutex
}

// Status contains the healthcheck status
type Status struct {
	Healthy bool   `json:"healthy"`
	Cache   string `json:"cache,omitempty"`
	Storage string `json:"storage,omitempty"`
}

// Run runs a check, then keeps checking in the background until Ctx is done
func (c *Checker) Run() {
	c.runCheck()

	ticker := time.NewTicker(checkInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.runCheck()
			case <-c.Ctx.Done():
				return
			}
		}
	}()
}

// Status returns the status of the latest check
func (c *Checker) Status() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.status
}

func (c *Checker) unknownStatus() Status {
	status := Status{}
	if c.Cache != nil {
		status.Cache = unknown
	}
	if c.Storage != nil {
		status.Storage = unknown
	}
	return status
}

func (c *Checker) runCheck() {
	ctx, cancel := context.WithTimeout(c.Ctx, checkTimeout)
	defer cancel()

	channel := make(chan Status, 1)
	go c.check(ctx, channel)

	select {
	case <-ctx.Done():
		c.mutex.Lock()
		c.status = c.unknownStatus()
		c.mutex.Unlock()

		c.Log.Errorw("healthcheck timed out")
	case status, ok := <-channel:
		if !ok {
			return
		}

		c.mutex.Lock()
		c.status = status
		c.mutex.Unlock()

		if !status.Healthy {
			c.Log.Errorw("healthcheck error",
				"status", status,
			)
		}
	}
}

func (c *Checker) check(ctx context.Context, channel chan Status) {
	defer close(channel)

	status := c.unknownStatus()
	status.Healthy = true

	if c.Cache != nil {
		// A missing key is the expected answer from a reachable cache
		if _, err := c.Cache.Get(ctx, "healthcheck"); !errors.Is(err, cache.ErrNotFound) {
			status.Healthy = false
			status.Cache = unhealthy
		} else {
			status.Cache = healthy
		}
	}

	if ctx.Err() != nil {
		return
	}

	if c.Storage != nil {
		if _, err := c.Storage.Get(ctx, c.Key); err != nil {
			status.Healthy = false
			status.Storage = unhealthy
		} else {
			status.Storage = healthy
		}
	}

	if ctx.Err() != nil {
		return
	}

	channel <- status
}
