package signal

import (
	"math"
	"testing"

	"github.com/kirillm/hft-bot/internal/domain"
)

func TestEvaluate_Direction(t *testing.T) {
	tests := []struct {
		name      string
		previous  float64
		current   float64
		threshold float64
		wantDir   string
	}{
		{"no baseline", 0, 1.0020, 0.0015, domain.DirectionNone},
		{"flat price", 1.0, 1.0, 0.0015, domain.DirectionNone},
		{"below threshold up", 1.0, 1.0010, 0.0015, domain.DirectionNone},
		{"below threshold down", 1.0, 0.9990, 0.0015, domain.DirectionNone},
		{"exactly at threshold", 1.0, 1.5, 0.5, domain.DirectionNone},
		{"above threshold", 1.0, 1.0020, 0.0015, domain.DirectionUp},
		{"below negative threshold", 1.0, 0.9980, 0.0015, domain.DirectionDown},
		{"large move up", 2.0, 2.5, 0.0015, domain.DirectionUp},
		{"zero threshold", 1.0, 1.5, 0, domain.DirectionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, dir := Evaluate(tt.previous, tt.current, tt.threshold)
			if dir != tt.wantDir {
				t.Errorf("Evaluate() direction = %v, want %v", dir, tt.wantDir)
			}
		})
	}
}

func TestEvaluate_Confidence(t *testing.T) {
	tests := []struct {
		name      string
		previous  float64
		current   float64
		threshold float64
		want      float64
	}{
		{"no baseline", 0, 1.0, 0.0015, 0},
		{"flat price", 1.0, 1.0, 0.0015, 0},
		{"third of threshold", 1.0, 1.0005, 0.0015, 100.0 / 3.0},
		{"at threshold", 1.0, 1.0015, 0.0015, 100},
		{"saturates at 100", 1.0, 1.0020, 0.0015, 100},
		{"down move same magnitude", 1.0, 0.9995, 0.0015, 100.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Evaluate(tt.previous, tt.current, tt.threshold)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Evaluate() confidence = %v, want %v", got, tt.want)
			}
		})
	}
}

// Уверенность монотонна по |изменению| до насыщения.
func TestEvaluate_ConfidenceMonotonic(t *testing.T) {
	prev := 1.0
	last := -1.0
	for _, cur := range []float64{1.0, 1.0002, 1.0005, 1.0010, 1.0015, 1.0020, 1.0100} {
		conf, _ := Evaluate(prev, cur, 0.0015)
		if conf < last {
			t.Fatalf("confidence not monotonic: %v at price %v after %v", conf, cur, last)
		}
		if conf > 100 {
			t.Fatalf("confidence %v exceeds 100 at price %v", conf, cur)
		}
		last = conf
	}
}
