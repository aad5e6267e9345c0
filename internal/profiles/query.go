package profiles

import (
	"strings"
	"unicode"
)

// Term is a single search condition.
type Term struct {
	Value  string
	Negate bool
}

// Query is a parsed search string. Terms are combined with AND.
//
// Supported syntax:
//
//	dog            field text contains "dog" (case-insensitive, * is a wildcard)
//	"big dog"      phrase
//	-dog           exclude
//	tag:animals    note has tag (tag:anim* matches a prefix)
//	deck:Japanese  cards in the deck or any of its subdecks
type Query struct {
	Text  []Term
	Tags  []Term
	Decks []Term
}

// ParseQuery parses a search string.
func ParseQuery(s string) Query {
	var q Query
	for _, tok := range tokenize(s) {
		term := Term{Value: tok}
		if len(tok) > 1 && tok[0] == '-' {
			term = Term{Value: tok[1:], Negate: true}
		}

		lower := strings.ToLower(term.Value)
		switch {
		case strings.HasPrefix(lower, "tag:"):
			term.Value = term.Value[len("tag:"):]
			if term.Value != "" {
				q.Tags = append(q.Tags, term)
			}
		case strings.HasPrefix(lower, "deck:"):
			term.Value = term.Value[len("deck:"):]
			if term.Value != "" {
				q.Decks = append(q.Decks, term)
			}
		case term.Value != "":
			q.Text = append(q.Text, term)
		}
	}
	return q
}

// Empty reports whether the query has no conditions.
func (q Query) Empty() bool {
	return len(q.Text) == 0 && len(q.Tags) == 0 && len(q.Decks) == 0
}

// SQL renders the query as a WHERE clause over the notes table aliased n.
func (q Query) SQL() (string, []any) {
	var (
		clauses []string
		args    []any
	)

	add := func(clause string, negate bool, values ...any) {
		if negate {
			clause = "NOT (" + clause + ")"
		}
		clauses = append(clauses, clause)
		args = append(args, values...)
	}

	for _, t := range q.Text {
		add(`n.flds LIKE ? ESCAPE '\'`, t.Negate, "%"+likePattern(t.Value)+"%")
	}
	for _, t := range q.Tags {
		add(`n.tags LIKE ? ESCAPE '\'`, t.Negate, "% "+likePattern(t.Value)+" %")
	}
	for _, t := range q.Decks {
		name := likePattern(t.Value)
		add(`n.id IN (SELECT nid FROM cards WHERE did IN (`+
			`SELECT id FROM decks WHERE name LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\'))`,
			t.Negate, name, name+"::%")
	}

	return strings.Join(clauses, " AND "), args
}

// likePattern escapes LIKE metacharacters and turns * into a wildcard.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `%`)
	return r.Replace(s)
}

func tokenize(s string) []string {
	var (
		tokens  []string
		sb      strings.Builder
		inQuote bool
	)
	flush := func() {
		if sb.Len() > 0 {
			tokens = append(tokens, sb.String())
			sb.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			sb.WriteRune(r)
		}
	}
	flush()
	return tokens
}
