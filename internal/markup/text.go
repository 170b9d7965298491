package markup

import "strings"

// TextRun is a span of literal text with the formatters in effect over it,
// outermost first
type TextRun struct {
	Text     string `json:"text" yaml:"text"`
	Tags     []Tag  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Position int    `json:"position" yaml:"position"`
}

// ParsedText is the result of parsing one raw field: its text runs in
// left-to-right reading order
type ParsedText struct {
	Runs []TextRun `json:"runs" yaml:"runs"`
	// Fallbacks counts unknown tag literals treated as {end} in lenient mode
	Fallbacks int `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
}

// String returns the text with all markup stripped
func (p ParsedText) String() string {
	var b strings.Builder
	for _, run := range p.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

// IsEmpty reports whether the field carried no text at all
func (p ParsedText) IsEmpty() bool {
	return len(p.Runs) == 0
}

// Color returns the innermost color formatter, TagWhite when none applies
func (r TextRun) Color() Tag {
	if tag, ok := r.last(KindColor); ok {
		return tag
	}
	return TagWhite
}

// Font returns the innermost font formatter, TagBig when none applies
func (r TextRun) Font() Tag {
	return r.FontOr(TagBig)
}

// FontOr returns the innermost font formatter, or def when none applies.
// Label lines default to the small font.
func (r TextRun) FontOr(def Tag) Tag {
	if tag, ok := r.last(KindFont); ok {
		return tag
	}
	return def
}

// Align returns the innermost alignment formatter
func (r TextRun) Align() (Tag, bool) {
	return r.last(KindAlign)
}

// Has reports whether tag is in effect on the run
func (r TextRun) Has(tag Tag) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r TextRun) last(kind Kind) (Tag, bool) {
	for i := len(r.Tags) - 1; i >= 0; i-- {
		if r.Tags[i].Kind() == kind {
			return r.Tags[i], true
		}
	}
	return TagEnd, false
}
