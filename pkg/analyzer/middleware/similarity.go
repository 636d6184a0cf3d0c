package middleware

import (
	"regexp"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
)

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//.*`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// NormalizeCode strips comments, collapses whitespace, unifies quotes and
// drops semicolons so formatting differences do not affect comparison.
func NormalizeCode(code string) string {
	code = blockCommentRe.ReplaceAllString(code, "")
	code = lineCommentRe.ReplaceAllString(code, "")
	code = whitespaceRe.ReplaceAllString(code, " ")
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, `"`, "'")
	return strings.ReplaceAll(code, ";", "")
}

// TokenizeCode splits code at word boundaries, keeping word runs and
// punctuation runs and discarding whitespace-only pieces.
func TokenizeCode(code string) []string {
	var tokens []string
	start := 0
	for i := 1; i <= len(code); i++ {
		if i < len(code) && isWordByte(code[i]) == isWordByte(code[i-1]) {
			continue
		}
		if tok := code[start:i]; strings.TrimSpace(tok) != "" {
			tokens = append(tokens, tok)
		}
		start = i
	}
	return tokens
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// interner assigns dense ids to tokens so token sets become bitmaps.
type interner struct {
	ids map[string]uint32
}

func newInterner() *interner {
	return &interner{ids: make(map[string]uint32)}
}

func (in *interner) bitmap(tokens []string) *roaring.Bitmap {
	bm := roaring.New()
	for _, tok := range tokens {
		id, ok := in.ids[tok]
		if !ok {
			id = uint32(len(in.ids))
			in.ids[tok] = id
		}
		bm.Add(id)
	}
	return bm
}

// profile is the comparison form of one code body.
type profile struct {
	normalized string
	digest     uint64
	tokens     *roaring.Bitmap
}

func newProfile(code string, in *interner) *profile {
	normalized := NormalizeCode(code)
	return &profile{
		normalized: normalized,
		digest:     xxhash.Sum64String(normalized),
		tokens:     in.bitmap(TokenizeCode(normalized)),
	}
}

// similarity is 1 for identical normalized text, otherwise the Jaccard index
// of the token sets. Two empty token sets score 0.
func (p *profile) similarity(other *profile) float64 {
	if p.digest == other.digest && p.normalized == other.normalized {
		return 1.0
	}
	union := p.tokens.OrCardinality(other.tokens)
	if union == 0 {
		return 0
	}
	return float64(p.tokens.AndCardinality(other.tokens)) / float64(union)
}

// Similarity scores two code bodies in [0, 1]. The measure is symmetric and
// ignores token order and multiplicity.
func Similarity(a, b string) float64 {
	in := newInterner()
	return newProfile(a, in).similarity(newProfile(b, in))
}
