// Package tablegraph rebuilds tables from a document-analysis block graph and
// turns the most plausible transactions table into records.
package tablegraph

import (
	"strings"
)

// BlockType is the kind of node in the analysis graph.
type BlockType string

const (
	BlockPage        BlockType = "PAGE"
	BlockLine        BlockType = "LINE"
	BlockWord        BlockType = "WORD"
	BlockTable       BlockType = "TABLE"
	BlockCell        BlockType = "CELL"
	BlockKeyValueSet BlockType = "KEY_VALUE_SET"
)

// RelationType is the label of an edge between blocks.
type RelationType string

const (
	RelationChild RelationType = "CHILD"
	RelationValue RelationType = "VALUE"
)

// EntityKey marks the key side of a KEY_VALUE_SET pair.
const EntityKey = "KEY"

// Relationship is a set of directed edges of one type.
type Relationship struct {
	Type RelationType
	IDs  []string
}

// Block is one node of the graph. RowIndex and ColumnIndex are 1-based and
// only meaningful for cells. Confidence is on a 0-100 scale.
type Block struct {
	ID            string
	Type          BlockType
	Text          string
	Confidence    float64
	RowIndex      int
	ColumnIndex   int
	Relationships []Relationship
	EntityTypes   []string
}

// Graph is an indexed, read-only block graph.
type Graph struct {
	blocks []Block
	byID   map[string]int
}

// NewGraph indexes blocks by ID. Later duplicates of an ID win.
func NewGraph(blocks []Block) *Graph {
	g := &Graph{
		blocks: blocks,
		byID:   make(map[string]int, len(blocks)),
	}
	for i, b := range blocks {
		g.byID[b.ID] = i
	}
	return g
}

// Blocks returns the blocks in service order.
func (g *Graph) Blocks() []Block {
	if g == nil {
		return nil
	}
	return g.blocks
}

// Lookup returns the block with the given ID. Dangling IDs report false.
func (g *Graph) Lookup(id string) (Block, bool) {
	if g == nil {
		return Block{}, false
	}
	i, ok := g.byID[id]
	if !ok {
		return Block{}, false
	}
	return g.blocks[i], true
}

func (g *Graph) children(b Block, rel RelationType) []Block {
	var out []Block
	for _, r := range b.Relationships {
		if r.Type != rel {
			continue
		}
		for _, id := range r.IDs {
			if child, ok := g.Lookup(id); ok {
				out = append(out, child)
			}
		}
	}
	return out
}

// wordText joins the WORD children of b with single spaces.
func (g *Graph) wordText(b Block) string {
	var words []string
	for _, child := range g.children(b, RelationChild) {
		if child.Type == BlockWord && child.Text != "" {
			words = append(words, child.Text)
		}
	}
	return strings.Join(words, " ")
}

// Lines returns the text of LINE blocks in service order.
func (g *Graph) Lines() []string {
	var lines []string
	for _, b := range g.Blocks() {
		if b.Type == BlockLine {
			lines = append(lines, b.Text)
		}
	}
	return lines
}

// AverageConfidence is the mean confidence across all blocks, or 0 for an
// empty graph.
func (g *Graph) AverageConfidence() float64 {
	blocks := g.Blocks()
	if len(blocks) == 0 {
		return 0
	}
	var sum float64
	for _, b := range blocks {
		sum += b.Confidence
	}
	return sum / float64(len(blocks))
}

// KeyValue is a form field found on the statement, such as the account
// holder or the statement period.
type KeyValue struct {
	Key   string
	Value string
}

// KeyValues returns form fields in the order their keys appear. Keys without
// a resolvable value are left out.
func (g *Graph) KeyValues() []KeyValue {
	var out []KeyValue
	for _, b := range g.Blocks() {
		if b.Type != BlockKeyValueSet || !isKey(b) {
			continue
		}
		key := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(g.wordText(b)), ":"))
		if key == "" {
			continue
		}
		var values []string
		for _, v := range g.children(b, RelationValue) {
			if text := g.wordText(v); text != "" {
				values = append(values, text)
			}
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, KeyValue{Key: key, Value: strings.Join(values, " ")})
	}
	return out
}

func isKey(b Block) bool {
	for _, e := range b.EntityTypes {
		if e == EntityKey {
			return true
		}
	}
	return false
}
