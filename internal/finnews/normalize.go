package finnews

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tickerPattern matches queries made solely of uppercase letters, digits
// and :_- separators, e.g. "TSLA", "NASDAQ:AAPL", "BRK-B".
var tickerPattern = regexp.MustCompile(`^[A-Z0-9:_-]+$`)

// localeHint biases providers toward Spanish-regional coverage when the
// query looks like a Spanish-language topic. Purely heuristic.
const localeHint = "Espana"

// IsTickerQuery reports whether the query should be routed to
// ticker-oriented search parameters rather than free-text ones.
func IsTickerQuery(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" || !tickerPattern.MatchString(query) {
		return false
	}
	return strings.ContainsFunc(query, unicode.IsUpper)
}

// NormalizeQuery trims the query and transliterates accented characters,
// since some providers are sensitive to non-ASCII input. Queries carrying
// diacritics are assumed to name a regional topic and get a locale hint
// token appended to bias results toward relevant regional coverage.
func NormalizeQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	accented := hasDiacritics(query)
	query = transliterate(query)
	if accented {
		query += " " + localeHint
	}
	return query
}

func hasDiacritics(s string) bool {
	decomposed := norm.NFD.String(s)
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			return true
		}
	}
	return false
}

func transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
