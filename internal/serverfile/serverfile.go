// Package serverfile reads server definitions from JSON, YAML or TOML files.
//
// A file holds either a single server object, a list of server objects, or a
// table with a "servers" list (the only layout TOML allows for several
// servers). Field names are the JSON wire names in every format.
package serverfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/signald/serverconf/internal/protocol"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Definition is one server read from a file
type Definition struct {
	Path   string
	Server protocol.ServerConfig
}

// Parse decodes the servers in data. The format is chosen by the extension
// of name: .json, .yaml, .yml or .toml.
func Parse(name string, data []byte) ([]protocol.ServerConfig, error) {
	var doc any
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	case ".toml":
		var table map[string]any
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		doc = table
	default:
		return nil, fmt.Errorf("unsupported server file type %q", ext)
	}

	if table, ok := doc.(map[string]any); ok {
		if list, ok := table["servers"]; ok {
			doc = list
		}
	}

	// Round-trip through JSON so every format shares the wire field names
	// and the uuid text parsing of protocol.ServerConfig.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", name, err)
	}

	switch doc.(type) {
	case []any:
		var servers []protocol.ServerConfig
		if err := json.Unmarshal(normalized, &servers); err != nil {
			return nil, fmt.Errorf("invalid server list in %s: %w", name, err)
		}
		return servers, nil
	case map[string]any:
		var server protocol.ServerConfig
		if err := json.Unmarshal(normalized, &server); err != nil {
			return nil, fmt.Errorf("invalid server in %s: %w", name, err)
		}
		return []protocol.ServerConfig{server}, nil
	default:
		return nil, fmt.Errorf("%s: expected a server object or a list of servers", name)
	}
}

// LoadFile reads and parses a single definition file
func LoadFile(path string) ([]protocol.ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Glob expands doublestar patterns into a sorted, de-duplicated file list.
// A pattern without meta characters is returned as is so a missing file
// surfaces as a read error later.
func Glob(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 && !hasMeta(pattern) {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadAll parses files concurrently. Definitions come back in path order,
// then in file order.
func LoadAll(ctx context.Context, paths []string) ([]Definition, error) {
	results := make([][]protocol.ServerConfig, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			servers, err := LoadFile(path)
			if err != nil {
				return err
			}
			results[i] = servers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var defs []Definition
	for i, servers := range results {
		for _, s := range servers {
			defs = append(defs, Definition{Path: paths[i], Server: s})
		}
	}
	return defs, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
