package config

import (
	"fmt"
	"net"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Validate checks the configuration for values the builder cannot work with.
func (c *Config) Validate() error {
	if c.Input == "" {
		return serrors.ValidationFailed("input", "is required")
	}
	if c.BuildRoot == "" {
		return serrors.ValidationFailed("build_root", "is required")
	}
	if c.Template.Path != "" && c.Template.URL != "" {
		return serrors.ValidationFailed("template", "must set either path or url, not both")
	}
	if c.Template.Path == "" && c.Template.URL == "" {
		return serrors.ValidationFailed("template", "path or url is required")
	}
	if err := c.Serve.validate(); err != nil {
		return err
	}
	if c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return serrors.ValidationFailed("metrics.listen", fmt.Sprintf("must be host:port (%v)", err))
		}
	}
	if c.Notify.NATSURL != "" && c.Notify.Subject == "" {
		return serrors.ValidationFailed("notify.subject", "is required when nats_url is set")
	}
	return nil
}

func (s ServeConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if len(s.Command) == 0 || s.Command[0] == "" {
		return serrors.ValidationFailed("serve.command", "must name a program")
	}
	if s.PortSpan <= 0 {
		return serrors.ValidationFailed("serve.port_span", "must be positive")
	}
	if s.PortBase <= 0 || s.PortBase+s.PortSpan-1 > 65535 {
		return serrors.ValidationFailed("serve.port_base", fmt.Sprintf("range %d+%d exceeds 1-65535", s.PortBase, s.PortSpan))
	}
	return nil
}
