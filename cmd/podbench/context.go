package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"podbench/internal/client"
	"podbench/internal/config"
)

type commandContext struct {
	addressFlag *string
	configFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addressFlag, configFlag *string) *commandContext {
	return &commandContext{
		addressFlag: addressFlag,
		configFlag:  configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
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

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) daemonAddress() string {
	if c.addressFlag != nil && strings.TrimSpace(*c.addressFlag) != "" {
		return strings.TrimSpace(*c.addressFlag)
	}
	cfg, _ := c.ensureConfig()
	if cfg != nil && strings.TrimSpace(cfg.Paths.APIBind) != "" {
		return cfg.Paths.APIBind
	}
	return "127.0.0.1:8000"
}

func (c *commandContext) withClient(fn func(*client.Client) error) error {
	address := c.daemonAddress()
	apiClient, err := client.New(address)
	if err != nil {
		return err
	}
	if err := fn(apiClient); err != nil {
		return describeClientError(err, address)
	}
	return nil
}

func describeClientError(err error, address string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start it with `podbenchd`", address)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
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
