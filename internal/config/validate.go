package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRetrieval(); err != nil {
		return err
	}
	if err := c.validateIntake(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRetrieval() error {
	switch c.Retrieval.Strategy {
	case "actor", "direct":
	default:
		return fmt.Errorf("retrieval.strategy must be %q or %q, got %q", "actor", "direct", c.Retrieval.Strategy)
	}
	if c.Retrieval.Strategy == "actor" && c.Retrieval.ActorID == "" {
		return errors.New("retrieval.actor_id must be set for the actor strategy")
	}
	return nil
}

func (c *Config) validateIntake() error {
	if _, err := time.LoadLocation(c.Intake.Timezone); err != nil {
		return fmt.Errorf("intake.timezone: unknown timezone %q", c.Intake.Timezone)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", "console", "json", c.Logging.Format)
	}
	return nil
}
