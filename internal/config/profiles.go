// internal/config/profiles.go
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nhath/ezgrid/internal/db"
)

// GetProfile retrieves a profile by name
func (c *Config) GetProfile(name string) (*Profile, error) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile not found: %s", name)
}

// ResolveProfile picks the named profile, falling back to the default one
// and then to the only one
func (c *Config) ResolveProfile(name string) (*Profile, error) {
	if name != "" {
		return c.GetProfile(name)
	}
	if c.DefaultProfile != "" {
		return c.GetProfile(c.DefaultProfile)
	}
	if len(c.Profiles) == 1 {
		return &c.Profiles[0], nil
	}
	return nil, fmt.Errorf("no profile selected and %d configured", len(c.Profiles))
}

// AddProfile adds a new profile to the config
func (c *Config) AddProfile(p Profile) error {
	for _, existing := range c.Profiles {
		if existing.Name == p.Name {
			return fmt.Errorf("profile already exists: %s", p.Name)
		}
	}
	c.Profiles = append(c.Profiles, p)
	return c.Save()
}

// ListProfiles returns all profile names
func (c *Config) ListProfiles() []string {
	names := make([]string, len(c.Profiles))
	for i, p := range c.Profiles {
		names[i] = p.Name
	}
	return names
}

// DriverType maps the profile type to a driver
func (p *Profile) DriverType() (db.DriverType, error) {
	switch p.Type {
	case "postgres", "postgresql":
		return db.Postgres, nil
	case "mysql":
		return db.MySQL, nil
	case "sqlite", "sqlite3", "":
		return db.SQLite, nil
	}
	return "", fmt.Errorf("profile %s: unknown type %q", p.Name, p.Type)
}

// ConnectParams returns the driver parameters, including the SSH tunnel
// when one is configured
func (p *Profile) ConnectParams() db.ConnectParams {
	params := db.ConnectParams{
		Host:     p.Host,
		Port:     p.Port,
		User:     p.User,
		Password: p.Password,
		Database: p.Database,
	}
	if p.SSHHost != "" {
		port := p.SSHPort
		if port == 0 {
			port = 22
		}
		params.SSHConfig = &db.SSHConfig{
			Host:     p.SSHHost,
			Port:     port,
			User:     p.SSHUser,
			Password: p.SSHPassword,
			KeyPath:  p.SSHKeyPath,
			UseAgent: p.SSHAgent,
			Timeout:  10 * time.Second,
		}
	}
	return params
}

// DisplayDSN returns the connection as a URI with the password masked
func (p *Profile) DisplayDSN() string {
	user := p.User
	if p.Password != "" {
		user += ":***"
	}
	switch p.Type {
	case "postgres", "postgresql":
		return fmt.Sprintf("postgres://%s@%s:%d/%s", user, p.Host, p.Port, p.Database)
	case "mysql":
		return fmt.Sprintf("mysql://%s@%s:%d/%s", user, p.Host, p.Port, p.Database)
	default:
		return fmt.Sprintf("sqlite://%s", p.Database)
	}
}

// ParseDSN parses a connection string into a Profile
func ParseDSN(name, dsn string) (Profile, error) {
	p := Profile{Name: name}

	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		if err := p.fromURL(dsn, "postgres", 5432); err != nil {
			return p, err
		}
	case strings.HasPrefix(dsn, "mysql://"):
		if err := p.fromURL(dsn, "mysql", 3306); err != nil {
			return p, err
		}
	case strings.HasPrefix(dsn, "sqlite://") || strings.HasPrefix(dsn, "file:"):
		p.Type = "sqlite"
		path := strings.TrimPrefix(dsn, "sqlite://")
		p.Database = strings.TrimPrefix(path, "file:")
	default:
		// a bare path is a SQLite file
		p.Type = "sqlite"
		p.Database = dsn
	}
	return p, nil
}

func (p *Profile) fromURL(dsn, typ string, defaultPort int) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return err
	}
	p.Type = typ
	p.Host = u.Hostname()
	p.Port = defaultPort
	if port := u.Port(); port != "" {
		if p.Port, err = strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid port %q", port)
		}
	}
	p.User = u.User.Username()
	p.Password, _ = u.User.Password()
	p.Database = strings.TrimPrefix(u.Path, "/")
	return nil
}
