package driver

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"
)

var versionPrefix = regexp.MustCompile(`\d+(\.\d+){0,2}`)

func (c *SQLConn) versionQuery() string {
	switch c.dialect.Name() {
	case "sqlite":
		return "SELECT sqlite_version() AS version"
	case "postgresql":
		return "SHOW server_version"
	default:
		return "SELECT VERSION() AS version"
	}
}

// ServerVersion queries and parses the server version
func (c *SQLConn) ServerVersion(ctx context.Context) (*version.Version, error) {
	res, err := c.Execute(ctx, c.versionQuery(), nil)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("server returned no version")
	}
	var raw string
	for _, v := range res.Rows[0] {
		raw = fmt.Sprint(v)
	}
	return ParseVersion(raw)
}

// ParseVersion extracts the numeric part of strings like "8.0.36-log"
func ParseVersion(raw string) (*version.Version, error) {
	m := versionPrefix.FindString(raw)
	if m == "" {
		return nil, fmt.Errorf("invalid server version %q", raw)
	}
	return version.NewVersion(m)
}

// RequireVersion fails when the server does not satisfy constraint, e.g. ">= 5.7"
func (c *SQLConn) RequireVersion(ctx context.Context, constraint string) (*version.Version, error) {
	constraints, err := version.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint: %w", err)
	}
	v, err := c.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	if !constraints.Check(v) {
		return v, fmt.Errorf("server version %s does not satisfy %s", v, constraint)
	}
	return v, nil
}
