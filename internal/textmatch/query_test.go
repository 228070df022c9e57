package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  []Clause
	}{
		{
			name:  "empty",
			query: "   ",
			want:  nil,
		},
		{
			name:  "bare words",
			query: "git co",
			want: []Clause{
				{{Kind: Subsequence, Text: "git"}},
				{{Kind: Subsequence, Text: "co"}},
			},
		},
		{
			name:  "all term kinds",
			query: "'sub 'word' ^pre suf$ !neg !^npre !nsuf$",
			want: []Clause{
				{{Kind: Substring, Text: "sub"}},
				{{Kind: Word, Text: "word"}},
				{{Kind: Prefix, Text: "pre"}},
				{{Kind: Suffix, Text: "suf"}},
				{{Kind: NotSubstring, Text: "neg"}},
				{{Kind: NotPrefix, Text: "npre"}},
				{{Kind: NotSuffix, Text: "nsuf"}},
			},
		},
		{
			name:  "or group",
			query: "kubectl | helm install",
			want: []Clause{
				{{Kind: Subsequence, Text: "kubectl"}, {Kind: Subsequence, Text: "helm"}},
				{{Kind: Subsequence, Text: "install"}},
			},
		},
		{
			name:  "dangling pipes",
			query: "| a |",
			want: []Clause{
				{{Kind: Subsequence, Text: "a"}},
			},
		},
		{
			name:  "folded before parsing",
			query: "^Café",
			want: []Clause{
				{{Kind: Prefix, Text: "cafe"}},
			},
		},
		{
			name:  "lone operators are literal",
			query: "! ^ $",
			want: []Clause{
				{{Kind: Subsequence, Text: "!"}},
				{{Kind: Subsequence, Text: "^"}},
				{{Kind: Subsequence, Text: "$"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseQuery(tt.query)
			assert.Equal(t, tt.want, got.Clauses)
		})
	}
}

func TestQuery_FirstPositive(t *testing.T) {
	t.Parallel()

	q := ParseQuery("!test docker")
	term, ok := q.FirstPositive()
	assert.True(t, ok)
	assert.Equal(t, Term{Kind: Subsequence, Text: "docker"}, term)

	_, ok = ParseQuery("!only").FirstPositive()
	assert.False(t, ok)
}

func TestTerm_Negated(t *testing.T) {
	t.Parallel()

	assert.False(t, Term{Kind: Suffix}.Negated())
	assert.True(t, Term{Kind: NotSubstring}.Negated())
	assert.Equal(t, Term{Kind: Prefix, Text: "x"}, Term{Kind: NotPrefix, Text: "x"}.positive())
}
