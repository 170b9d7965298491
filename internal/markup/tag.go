package markup

import (
	"errors"
	"fmt"
)

// Tag is one formatter of the MCDU markup vocabulary
type Tag uint8

const (
	TagEnd Tag = iota // closes the innermost open scope
	TagLeft
	TagRight
	TagAmber
	TagCyan
	TagGreen
	TagInop
	TagMagenta
	TagRed
	TagWhite
	TagYellow
	TagBig
	TagSmall
	TagSpace // self-closing literal space, {sp}
)

// Kind groups tags that compete with each other on a text run
type Kind uint8

const (
	KindClose Kind = iota
	KindAlign
	KindColor
	KindFont
	KindSpace
)

// ErrUnknownTag is returned for a tag literal outside the vocabulary
var ErrUnknownTag = errors.New("unknown tag")

var tagNames = [...]string{
	TagEnd:     "end",
	TagLeft:    "left",
	TagRight:   "right",
	TagAmber:   "amber",
	TagCyan:    "cyan",
	TagGreen:   "green",
	TagInop:    "inop",
	TagMagenta: "magenta",
	TagRed:     "red",
	TagWhite:   "white",
	TagYellow:  "yellow",
	TagBig:     "big",
	TagSmall:   "small",
	TagSpace:   "sp",
}

var tagsByName = func() map[string]Tag {
	m := make(map[string]Tag, len(tagNames))
	for tag, name := range tagNames {
		m[name] = Tag(tag)
	}
	return m
}()

// ParseTag decodes a tag literal such as "green" or "end".
// Unknown literals return TagEnd together with an error wrapping ErrUnknownTag.
func ParseTag(name string) (Tag, error) {
	if tag, ok := tagsByName[name]; ok {
		return tag, nil
	}
	return TagEnd, fmt.Errorf("%w %q", ErrUnknownTag, name)
}

// DecodeTag decodes a tag literal, mapping anything unknown to TagEnd
func DecodeTag(name string) Tag {
	tag, _ := ParseTag(name)
	return tag
}

// String returns the literal used between braces
func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// Kind reports which family the tag belongs to
func (t Tag) Kind() Kind {
	switch t {
	case TagLeft, TagRight:
		return KindAlign
	case TagAmber, TagCyan, TagGreen, TagInop, TagMagenta, TagRed, TagWhite, TagYellow:
		return KindColor
	case TagBig, TagSmall:
		return KindFont
	case TagSpace:
		return KindSpace
	default:
		return KindClose
	}
}

// MarshalText encodes the tag as its literal so decoded updates read naturally
// in JSON and YAML output
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tag literal strictly
func (t *Tag) UnmarshalText(text []byte) error {
	tag, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*t = tag
	return nil
}
