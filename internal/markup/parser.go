// Package markup parses the inline formatting language used in MCDU text
// fields.
//
// A field is plain UTF-8 text interleaved with tags of the form {name}.
// Every tag except {end} opens a scope that lasts until the matching {end};
// scopes nest and inherit the formatters of their ancestors. {sp} is a
// self-closing literal space and is expanded before scanning.
//
//	{green}V1{end} {small}{cyan}100{end}{end}
//
// Parsing builds a tree in a graph.Graph (one vertex per scope and per text
// run, with parent back-edges) and flattens the text-bearing leaves into a
// ParsedText ordered by discovery position.
package markup

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/studiowebux/mcdu/internal/graph"
)

// ErrUnbalancedClose is returned when {end} appears with no open scope
var ErrUnbalancedClose = errors.New("close tag without open scope")

// TagError locates a tag problem within the field being parsed
type TagError struct {
	Name   string
	Offset int
	Err    error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("tag {%s} at byte %d: %v", e.Name, e.Offset, e.Err)
}

func (e *TagError) Unwrap() error {
	return e.Err
}

const spaceMarker = "{sp}"

// Parser turns raw markup into ParsedText.
// The zero value is strict: unknown tag literals are errors.
type Parser struct {
	// Lenient treats unknown tag literals as {end} instead of failing
	Lenient bool
}

// Parse parses raw with a strict Parser
func Parse(raw string) (ParsedText, error) {
	return Parser{}.Parse(raw)
}

// span is a tree vertex: a scope opened by a tag, or a text leaf
type span struct {
	tags     []Tag
	text     string
	position int
	leaf     bool
}

const rootID = 0

// Parse parses one raw field
func (p Parser) Parse(raw string) (ParsedText, error) {
	input := strings.ReplaceAll(raw, spaceMarker, " ")

	tree := graph.New[int, span, bool]()
	tree.NewVertex(rootID, span{})

	var (
		result    ParsedText
		current   = rootID
		nextID    = rootID + 1
		position  = 0
		offset    = 0
		leafCount = 0
	)

	for offset < len(input) {
		if name, size, ok := tagAt(input[offset:]); ok {
			tag, err := ParseTag(name)
			if err != nil {
				if !p.Lenient {
					return ParsedText{}, &TagError{Name: name, Offset: offset, Err: err}
				}
				result.Fallbacks++
			}

			switch tag {
			case TagEnd:
				parent, ok := graph.Parent(tree, current)
				if !ok {
					return ParsedText{}, &TagError{Name: name, Offset: offset, Err: ErrUnbalancedClose}
				}
				current = parent
			default:
				id := nextID
				nextID++
				addChild(tree, current, id, span{tags: []Tag{tag}})
				current = id
			}
			offset += size
			continue
		}

		size := textLen(input[offset:])
		id := nextID
		nextID++
		addChild(tree, current, id, span{text: input[offset : offset+size], position: position, leaf: true})
		position++
		leafCount++
		offset += size
	}

	result.Runs = flatten(tree, leafCount)
	return result, nil
}

// addChild links a new vertex under parent. The child's formatter list is
// resolved here: the parent's list followed by the child's own tags.
func addChild(tree *graph.Graph[int, span, bool], parent, id int, child span) {
	if p, ok := tree.Vertex(parent); ok && len(p.tags) > 0 {
		child.tags = append(slices.Clone(p.tags), child.tags...)
	}
	tree.NewVertex(id, child)
	tree.PushEdge(parent, id, false)
	tree.PushEdge(id, parent, true)
}

// flatten collects the text leaves ordered by position
func flatten(tree *graph.Graph[int, span, bool], leafCount int) []TextRun {
	if leafCount == 0 {
		return nil
	}
	runs := make([]TextRun, 0, leafCount)
	var walk func(id int)
	walk = func(id int) {
		node, ok := tree.Vertex(id)
		if !ok {
			return
		}
		if node.leaf {
			runs = append(runs, TextRun{Text: node.text, Tags: node.tags, Position: node.position})
			return
		}
		for _, child := range graph.Children(tree, id) {
			walk(child)
		}
	}
	walk(rootID)

	slices.SortFunc(runs, func(a, b TextRun) int {
		return a.Position - b.Position
	})
	return runs
}

// tagAt reports whether s begins with a {name} tag and returns the name and
// the byte length of the whole tag
func tagAt(s string) (string, int, bool) {
	if len(s) < 3 || s[0] != '{' {
		return "", 0, false
	}
	end := strings.IndexByte(s, '}')
	if end < 2 {
		return "", 0, false
	}
	name := s[1:end]
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return "", 0, false
		}
	}
	return name, end + 1, true
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

// textLen returns the byte length of the literal text at the start of s,
// stopping before the next tag. The length is the sum of whole grapheme
// clusters so multi-byte glyphs are never split.
func textLen(s string) int {
	size := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		if size > 0 {
			if _, _, ok := tagAt(rest); ok {
				break
			}
		}
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		size += len(cluster)
	}
	return size
}
