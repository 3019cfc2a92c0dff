package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServers(); err != nil {
		return err
	}
	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateServers() error {
	seen := make(map[string]struct{}, len(c.Radarr)+len(c.Sonarr))
	check := func(kind string, servers []ArrServer) error {
		for i, server := range servers {
			if server.ID == "" {
				return fmt.Errorf("%s[%d].id must be set", kind, i)
			}
			if _, dup := seen[server.ID]; dup {
				return fmt.Errorf("duplicate acquisition target id %q", server.ID)
			}
			seen[server.ID] = struct{}{}
			if server.Enabled && strings.TrimSpace(server.URL) == "" {
				return fmt.Errorf("%s %q: url must be set when enabled", kind, server.ID)
			}
			if server.Enabled && strings.TrimSpace(server.APIKey) == "" {
				return fmt.Errorf("%s %q: api_key must be set when enabled", kind, server.ID)
			}
		}
		return nil
	}
	if err := check("radarr", c.Radarr); err != nil {
		return err
	}
	return check("sonarr", c.Sonarr)
}

func (c *Config) validatePlex() error {
	if !c.Plex.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Plex.URL) == "" {
		return errors.New("plex.url must be set when plex.enabled is true")
	}
	if strings.TrimSpace(c.Plex.Token) == "" {
		return errors.New("plex.token must be set when plex.enabled is true")
	}
	return nil
}

func (c *Config) validateMail() error {
	if !c.Mail.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Mail.Host) == "" {
		return errors.New("mail.host must be set when mail.enabled is true")
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return errors.New("mail.port must be a valid TCP port")
	}
	if strings.TrimSpace(c.Mail.From) == "" {
		return errors.New("mail.from must be set when mail.enabled is true")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	for name, value := range map[string]int{
		"workflow.submit_timeout": c.Workflow.SubmitTimeout,
		"workflow.remove_timeout": c.Workflow.RemoveTimeout,
		"workflow.notify_timeout": c.Workflow.NotifyTimeout,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
