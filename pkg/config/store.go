package config

import "fmt"

// Supported store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver string `koanf:"driver"`
}

func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case "":
		c.Driver = StoreDriverMemory
	case StoreDriverMemory, StoreDriverMongo, StoreDriverPostgres:
	default:
		return fmt.Errorf("unknown store driver: %q", c.Driver)
	}
	return nil
}
