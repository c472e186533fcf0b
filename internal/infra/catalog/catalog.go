// Package catalog loads source items from a local YAML or JSON catalog file.
package catalog

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gosimple/unidecode"
	zlog "github.com/rs/zerolog/log"
	"github.com/xrash/smetrics"
	"gopkg.in/yaml.v3"

	"github.com/osa030/mixbox/internal/domain/source"
)

// Catalog is an in-memory set of source items read from a file.
type Catalog struct {
	path  string
	items []source.Item
	index map[source.Ref]int
}

// Load reads a catalog file. The document is either a list of items or a
// mapping with a "sources" list. JSON files are accepted as well.
// Items that cannot be decoded are skipped with a warning.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse catalog file %s", path)
	}
	c.path = path

	zlog.Info().Msgf("catalog loaded: path=%s items=%d", path, len(c.items))
	return c, nil
}

// Parse builds a catalog from raw YAML or JSON.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid catalog document")
	}

	c := &Catalog{
		items: make([]source.Item, 0),
		index: make(map[source.Ref]int),
	}

	list, err := itemList(&doc)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return c, nil
	}

	for i, node := range list.Content {
		var item source.Item
		if err := node.Decode(&item); err != nil {
			zlog.Warn().Msgf("catalog: skipping entry %d (line %d): %v", i, node.Line, err)
			continue
		}
		if !item.Type.IsValid() {
			zlog.Warn().Msgf("catalog: skipping entry %d (line %d): unknown type %q", i, node.Line, item.Type)
			continue
		}
		ref := source.Ref{Type: item.Type, ID: item.ID}
		if _, dup := c.index[ref]; dup {
			zlog.Warn().Msgf("catalog: skipping duplicate %s (line %d)", ref, node.Line)
			continue
		}
		c.index[ref] = len(c.items)
		c.items = append(c.items, item)
	}

	return c, nil
}

// itemList locates the sequence of items in the document.
func itemList(doc *yaml.Node) (*yaml.Node, error) {
	node := doc
	if node.Kind == 0 {
		// empty input
		return nil, nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		node = node.Content[0]
	}

	switch node.Kind {
	case yaml.SequenceNode:
		return node, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "sources" {
				list := node.Content[i+1]
				if list.Kind != yaml.SequenceNode {
					return nil, errors.Newf("line %d: sources must be a list", list.Line)
				}
				return list, nil
			}
		}
		return nil, errors.New("missing sources list")
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, errors.Newf("line %d: catalog must be a list or a mapping with sources", node.Line)
}

// Path returns the file the catalog was loaded from.
func (c *Catalog) Path() string {
	return c.path
}

// Get returns the item identified by ref.
func (c *Catalog) Get(ref source.Ref) (source.Item, bool) {
	i, ok := c.index[ref]
	if !ok {
		return source.Item{}, false
	}
	return c.items[i], true
}

// Items returns all items in file order.
func (c *Catalog) Items() []source.Item {
	out := make([]source.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Search returns items whose name or owner contains query, ignoring case and
// accents. Single-word queries also match a word that is a near miss.
// An empty typ matches every type. limit <= 0 means no limit.
func (c *Catalog) Search(query string, typ source.Type, limit int) []source.Item {
	q := fold(strings.TrimSpace(query))
	out := make([]source.Item, 0)
	for _, item := range c.items {
		if typ != "" && item.Type != typ {
			continue
		}
		if q != "" && !matches(fold(item.Name), q) && !matches(fold(item.Owner), q) {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// fold maps s to lower-case ASCII ("Björk" -> "bjork").
func fold(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}

// Near-miss matching thresholds.
const (
	fuzzyMinLen   = 4
	fuzzyMinScore = 75
)

// matches reports whether text contains q, or has a word similar enough to it.
func matches(text, q string) bool {
	if strings.Contains(text, q) {
		return true
	}
	if len(q) < fuzzyMinLen || strings.ContainsAny(q, " \t") {
		return false
	}
	for _, word := range strings.Fields(text) {
		if similarity(word, q) >= fuzzyMinScore {
			return true
		}
	}
	return false
}

// similarity scores two strings from 0 to 100 by edit distance.
func similarity(a, b string) int {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 100
	}
	distance := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 100 - distance*100/maxLen
}
