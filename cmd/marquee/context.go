package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"marquee/internal/config"
	"marquee/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger returns a quiet logger for CLI workflows; command output goes to
// stdout, not the log stream.
func (c *commandContext) logger() *slog.Logger {
	return logging.NewNop()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for parent := cmd; parent != nil; parent = parent.Parent() {
		if parent.Annotations != nil && parent.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
