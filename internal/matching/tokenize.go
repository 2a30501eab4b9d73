package matching

import (
	"strings"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

// TokenSet - множество нормализованных токенов.
type TokenSet map[string]struct{}

// Tokenize приводит текст к нижнему регистру и режет его на токены из [a-z0-9].
// Любой другой символ считается разделителем. Пустой текст даёт пустое множество.
func Tokenize(text string) TokenSet {
	tokens := make(TokenSet)
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// ListingTokens собирает токены из названия, описания и места.
func ListingTokens(l *models.Listing) TokenSet {
	tokens := Tokenize(l.Name)
	tokens.add(Tokenize(l.Description))
	if l.Location != nil {
		tokens.add(Tokenize(*l.Location))
	}
	return tokens
}

func (s TokenSet) add(other TokenSet) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Intersects сообщает, есть ли у множеств общий токен.
func (s TokenSet) Intersects(other TokenSet) bool {
	small, big := s, other
	if len(small) > len(big) {
		small, big = big, small
	}
	for t := range small {
		if _, ok := big[t]; ok {
			return true
		}
	}
	return false
}

// Jaccard возвращает |A∩B| / |A∪B|, либо 0, если одно из множеств пусто.
func (s TokenSet) Jaccard(other TokenSet) float64 {
	if len(s) == 0 || len(other) == 0 {
		return 0
	}
	common := 0
	for t := range s {
		if _, ok := other[t]; ok {
			common++
		}
	}
	union := len(s) + len(other) - common
	return float64(common) / float64(union)
}
