package config

import (
	"fmt"
	"time"
)

// maxShutdownTimeout bounds how long the servers may drain in-flight requests.
const maxShutdownTimeout = 5 * time.Minute

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	if c.Timeout > maxShutdownTimeout {
		return fmt.Errorf("shutdown timeout %s exceeds the maximum of %s", c.Timeout, maxShutdownTimeout)
	}
	return nil
}
