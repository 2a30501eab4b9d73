package matching

import (
	"math"
	"strings"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

const (
	maxValueBonus = 0.2
	locationBonus = 0.1
)

// Score оценивает похожесть двух объявлений: Jaccard по токенам,
// плюс бонус за близкую стоимость и бонус за совпавшее место.
// Если у одного из объявлений нет токенов, балл равен 0.
// Результат не ограничен сверху, обычно лежит в диапазоне 0–1.3.
func Score(a, b *models.Listing) float64 {
	return scoreTokens(ListingTokens(a), ListingTokens(b), a, b)
}

// HasOverlap сообщает, есть ли у объявлений хотя бы один общий токен.
func HasOverlap(a, b *models.Listing) bool {
	return ListingTokens(a).Intersects(ListingTokens(b))
}

// Без токенов сравнивать нечего: бонусы за стоимость и место не спасают
// объявление из одних знаков препинания.
func scoreTokens(ta, tb TokenSet, a, b *models.Listing) float64 {
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	return ta.Jaccard(tb) + valueBonus(a.Value, b.Value) + sameLocationBonus(a.Location, b.Location)
}

func valueBonus(a, b *float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	scale := math.Max(1, math.Max(math.Abs(*a), math.Abs(*b)))
	return math.Max(0, maxValueBonus-math.Abs(*a-*b)/scale)
}

func sameLocationBonus(a, b *string) float64 {
	if a == nil || b == nil {
		return 0
	}
	la, lb := strings.TrimSpace(*a), strings.TrimSpace(*b)
	if la == "" || lb == "" || !strings.EqualFold(la, lb) {
		return 0
	}
	return locationBonus
}
