package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Variant {
	case VariantClinical, VariantHistopath:
	default:
		return fmt.Errorf("session.variant must be %q or %q (got %q)", VariantClinical, VariantHistopath, c.Session.Variant)
	}
	if c.Session.BannerSeconds > 60 {
		return errors.New("session.banner_seconds must be 60 or less")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputFile) == "" {
		return errors.New("paths.output_file must be set")
	}
	if filepath.Ext(c.Paths.OutputFile) == "" {
		return fmt.Errorf("paths.output_file %q must have a file extension", c.Paths.OutputFile)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
