package matching

import (
	"sort"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

const (
	// Threshold - минимальный балл, с которым кандидат проходит без общих токенов.
	Threshold = 0.12
	// MaxCandidates - сколько совпадений возвращается.
	MaxCandidates = 5
	// PoolSize - сколько свежих объявлений противоположного статуса сканируется при публикации.
	PoolSize = 100
	// SuggestionPoolSize - размер пула для подсказок на главной.
	SuggestionPoolSize = 50
)

// Candidate - объявление из пула с его баллом.
type Candidate struct {
	Listing models.Listing `json:"listing"`
	Score   float64        `json:"score"`
}

// Rank сравнивает target со всеми объявлениями пула и возвращает до
// MaxCandidates лучших. Пул ожидается отсортированным от новых к старым,
// поэтому при равных баллах сохраняется порядок свежести.
func Rank(target *models.Listing, pool []models.Listing) []Candidate {
	targetTokens := ListingTokens(target)

	candidates := make([]Candidate, 0, MaxCandidates)
	for i := range pool {
		other := &pool[i]
		if other.ID == target.ID {
			continue
		}
		otherTokens := ListingTokens(other)
		score := scoreTokens(targetTokens, otherTokens, target, other)
		if score >= Threshold || targetTokens.Intersects(otherTokens) {
			candidates = append(candidates, Candidate{Listing: *other, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates
}
