package main

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"partscope/internal/api"
	"partscope/internal/config"
)

type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) serverURL() (string, error) {
	if c.serverFlag != nil {
		if server := strings.TrimSpace(*c.serverFlag); server != "" {
			return server, nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.ServerURL(), nil
}

func (c *commandContext) client() (*api.Client, error) {
	server, err := c.serverURL()
	if err != nil {
		return nil, err
	}
	var opts []api.ClientOption
	if cfg, err := c.ensureConfig(); err == nil && cfg.Server.APIToken != "" {
		opts = append(opts, api.WithToken(cfg.Server.APIToken))
	}
	return api.NewClient(server, opts...)
}

// wrapServerError turns connection failures into actionable messages.
func wrapServerError(err error, server string) error {
	if err == nil {
		return nil
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("server error: %s", apiErr.Message)
	}
	var urlErr *url.Error
	var opErr *net.OpError
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to partscoped: %s refused the connection; start it with `partscoped`", server)
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return fmt.Errorf("connect to partscoped at %s: %w", server, err)
	case errors.As(err, &urlErr):
		return fmt.Errorf("request to %s failed: %w", server, urlErr.Err)
	default:
		return err
	}
}

// withClient runs fn against a client and maps its errors.
func (c *commandContext) withClient(fn func(*api.Client) error) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	return wrapServerError(fn(client), client.BaseURL())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
