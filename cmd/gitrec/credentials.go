package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	keyAPIURL = "api_url"
	keyToken  = "token"
	keyEmail  = "email"
)

// credentials is the login state kept between invocations. GITREC_API_URL
// and GITREC_TOKEN take precedence over the file.
type credentials struct {
	v    *viper.Viper
	path string
}

func openCredentials(path string) (*credentials, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GITREC")
	v.AutomaticEnv()
	path = strings.TrimSpace(path)
	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read credentials %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return &credentials{v: v, path: path}, nil
}

func (c *credentials) APIURL() string { return strings.TrimSpace(c.v.GetString(keyAPIURL)) }
func (c *credentials) Token() string  { return strings.TrimSpace(c.v.GetString(keyToken)) }
func (c *credentials) Email() string  { return strings.TrimSpace(c.v.GetString(keyEmail)) }

func (c *credentials) Save(apiURL, email, token string) error {
	c.v.Set(keyAPIURL, apiURL)
	c.v.Set(keyEmail, email)
	c.v.Set(keyToken, token)
	return c.write()
}

func (c *credentials) Clear() error {
	c.v.Set(keyToken, "")
	return c.write()
}

func (c *credentials) write() error {
	if c.path == "" {
		return errors.New("no credentials path configured")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	if err := c.v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return os.Chmod(c.path, 0o600)
}
