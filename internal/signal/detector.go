package signal

import "github.com/kirillm/hft-bot/internal/domain"

// Evaluate вычисляет уверенность триггера и направление по двум последовательным ценам.
// threshold задается долей (0.0015 == 0.15%). Чистая функция без побочных эффектов.
// Если previous не установлена (<= 0), возвращает (0, none).
func Evaluate(previous, current, threshold float64) (confidencePct float64, direction string) {
	if previous <= 0 || threshold <= 0 {
		return 0, domain.DirectionNone
	}

	change := (current - previous) / previous

	confidencePct = abs(change) / threshold * 100
	if confidencePct > 100 {
		confidencePct = 100
	}

	direction = domain.DirectionNone
	if change > threshold {
		direction = domain.DirectionUp
	} else if change < -threshold {
		direction = domain.DirectionDown
	}

	return confidencePct, direction
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
