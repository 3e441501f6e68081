package intent

import (
	"regexp"
	"strings"
)

// DefaultArtistSeparator joins "{title} by {artist}" captures into one search query.
const DefaultArtistSeparator = " "

// Captures never cross sentence punctuation.
const capture = `([^.!?]+)`

// verb is the set of words that introduce a media request.
const verb = `(?:play|queue|add)\s+`

// category is one gate of the cascade. An empty trigger always applies.
type category struct {
	trigger  string
	kind     EntityType
	patterns []*regexp.Regexp
}

// Classifier maps messages to a [Parsed] intent. The zero value is not usable; use [NewClassifier].
type Classifier struct {
	separator  string
	categories []category
}

// Option configures a [Classifier].
type Option func(*Classifier)

// WithArtistSeparator changes how a title and its artist are joined.
// The default drops the word "by" and joins with a single space.
func WithArtistSeparator(sep string) Option {
	return func(c *Classifier) {
		if sep != "" {
			c.separator = sep
		}
	}
}

// NewClassifier builds the podcast, album, song cascade.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		separator: DefaultArtistSeparator,
		categories: []category{
			{
				trigger: "podcast",
				kind:    Podcast,
				patterns: compile(
					verb+`(?:the\s+)?podcast\s+`+capture,
					verb+`([^.!?]+?)(?:\s+podcast)?\s*(?:[.!?]|$)`,
				),
			},
			{
				trigger: "album",
				kind:    Album,
				patterns: compile(
					verb+`(?:the\s+)?album\s+([^.!?]+?)\s+by\s+`+capture,
					verb+`(?:the\s+)?album\s+`+capture,
					`add\s+(?:the\s+)?album\s+`+capture+`\s+to\s+queue`,
				),
			},
			{
				kind: Song,
				patterns: compile(
					verb+`([^.!?]+?)\s+by\s+`+capture,
					verb+capture,
					`add\s+`+capture+`\s+to\s+queue`,
				),
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func compile(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		res[i] = regexp.MustCompile(expr)
	}
	return res
}

// Classify picks the first category whose trigger appears in text and returns
// the first pattern match inside it. Matched names are lower case; the fallback
// keeps the caller's casing.
func (c *Classifier) Classify(text string) Parsed {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	for _, cat := range c.categories {
		if cat.trigger != "" && !strings.Contains(lower, cat.trigger) {
			continue
		}
		if name, ok := c.match(cat, lower); ok {
			return Parsed{Name: name, Type: cat.kind}
		}
		break
	}

	return Parsed{Name: trimmed, Type: Song}
}

// match returns the joined, trimmed captures of the first pattern that yields a non-empty name.
func (c *Classifier) match(cat category, lower string) (string, bool) {
	for _, re := range cat.patterns {
		groups := re.FindStringSubmatch(lower)
		if groups == nil {
			continue
		}

		parts := make([]string, 0, len(groups)-1)
		for _, g := range groups[1:] {
			if g = strings.TrimSpace(g); g != "" {
				parts = append(parts, g)
			}
		}
		if len(parts) == 0 {
			continue
		}
		return strings.Join(parts, c.separator), true
	}
	return "", false
}
