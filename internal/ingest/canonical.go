// Package ingest decodes shapefiles and census tables into pipeline records,
// canonicalizes district-name join keys, and removes duplicate facilities.
package ingest

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

var foldCaser = cases.Fold()

// CanonicalKey produces the stable join key for a district name: trimmed,
// Unicode case-folded, inner whitespace collapsed. Free-text district labels
// from facility tags and the census population table must meet on this key.
func CanonicalKey(name string) string {
	folded := foldCaser.String(strings.TrimSpace(name))
	return strings.Join(strings.Fields(folded), " ")
}

// Canonicalizer resolves district names through the alias table before
// producing join keys.
type Canonicalizer struct {
	aliases map[string]string // canonical alias -> canonical primary name
}

// NewCanonicalizer builds a Canonicalizer from alias pairs (alias -> primary
// name); both sides are canonicalized on construction.
func NewCanonicalizer(aliases map[string]string) *Canonicalizer {
	canon := make(map[string]string, len(aliases))
	for alias, primary := range aliases {
		canon[CanonicalKey(alias)] = CanonicalKey(primary)
	}
	return &Canonicalizer{aliases: canon}
}

// Key returns the join key for a district name, following one alias hop.
func (c *Canonicalizer) Key(name string) string {
	k := CanonicalKey(name)
	if primary, ok := c.aliases[k]; ok {
		return primary
	}
	return k
}

// aliasFile is the on-disk YAML shape:
//
//	aliases:
//	  Belgaum: Belagavi
//	  Bangalore: Bengaluru Urban
type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliases reads a district alias table from a YAML file. A missing path
// yields an empty Canonicalizer.
func LoadAliases(path string) (*Canonicalizer, error) {
	if path == "" {
		return NewCanonicalizer(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewCanonicalizer(nil), nil
		}
		return nil, eris.Wrapf(err, "ingest: read alias file %s", path)
	}
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "ingest: parse alias file")
	}
	return NewCanonicalizer(f.Aliases), nil
}
