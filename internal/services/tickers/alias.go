package tickers

import (
	"context"
	"fmt"
	"os"
	"strings"

	xhttp "StockPredictor/pkg/http"
	applogger "StockPredictor/pkg/logger"

	"gopkg.in/yaml.v3"
)

// IndexAliases are always available, even when no alias source could be read.
var IndexAliases = map[string]string{
	"NIFTY 50":  "^NSEI",
	"SENSEX":    "^BSESN",
	"DOW JONES": "^DJI",
	"NASDAQ":    "^IXIC",
}

// AliasTable maps human-facing names to provider identifiers. It is immutable once built.
type AliasTable struct {
	entries map[string]string
	loaded  bool
}

// NewAliasTable builds a table from entries with the index aliases applied on top.
// loaded records whether any external alias data made it into entries.
func NewAliasTable(entries map[string]string, loaded bool) *AliasTable {
	m := make(map[string]string, len(entries)+len(IndexAliases))
	for k, v := range entries {
		m[normalizeName(k)] = strings.TrimSpace(v)
	}
	for k, v := range IndexAliases {
		m[k] = v
	}
	return &AliasTable{entries: m, loaded: loaded}
}

// Lookup returns the identifier mapped to name. name is expected upper-cased.
func (t *AliasTable) Lookup(name string) (string, bool) {
	v, ok := t.entries[name]
	return v, ok
}

// Loaded reports whether alias data beyond the index aliases is available.
func (t *AliasTable) Loaded() bool { return t.loaded }

// Len returns the number of aliases, index aliases included.
func (t *AliasTable) Len() int { return len(t.entries) }

// Loader reads alias sources: local YAML files or http(s) URLs serving the same YAML.
type Loader struct {
	client *xhttp.Client
	l      *applogger.Logger
}

func NewLoader(client *xhttp.Client, l *applogger.Logger) *Loader {
	return &Loader{client: client, l: l}
}

// Load merges every readable source in order (later sources win). Unreadable sources are
// logged and skipped so the service can still start with index aliases only.
func (ld *Loader) Load(ctx context.Context, sources []string) *AliasTable {
	merged := make(map[string]string)
	loaded := false
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		entries, err := ld.read(ctx, src)
		if err != nil {
			ld.l.Warn("alias source unavailable", applogger.String("source", src), applogger.Error(err))
			continue
		}
		for k, v := range entries {
			merged[k] = v
		}
		if len(entries) > 0 {
			loaded = true
		}
		ld.l.Info("alias source loaded", applogger.String("source", src), applogger.Int("entries", len(entries)))
	}
	if !loaded {
		ld.l.Warn("no alias data loaded; only index aliases are available")
	}
	return NewAliasTable(merged, loaded)
}

func (ld *Loader) read(ctx context.Context, src string) (map[string]string, error) {
	var raw []byte
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		if ld.client == nil {
			return nil, fmt.Errorf("no http client configured")
		}
		b, err := ld.client.Get(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", src, err)
		}
		raw = b
	} else {
		b, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src, err)
		}
		raw = b
	}
	return parseAliases(raw)
}

func parseAliases(raw []byte) (map[string]string, error) {
	var m map[string]string
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		name, id := normalizeName(k), strings.TrimSpace(v)
		if name == "" || id == "" {
			continue
		}
		out[name] = id
	}
	return out, nil
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
