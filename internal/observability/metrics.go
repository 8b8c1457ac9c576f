// Package observability содержит Prometheus-метрики бота.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics объединяет все метрики торгового цикла
type Metrics struct {
	// Цикл опроса котировок
	TicksTotal      prometheus.Counter
	FeedErrorsTotal prometheus.Counter
	LastPrice       prometheus.Gauge
	ConfidencePct   prometheus.Gauge

	// Сигналы и сделки
	TriggersTotal     *prometheus.CounterVec
	TradesOpenedTotal *prometheus.CounterVec
	TradesClosedTotal *prometheus.CounterVec

	// Шлюз исполнения
	GatewayErrorsTotal prometheus.Counter
}

// NewMetrics регистрирует метрики в переданном Registerer.
// Тесты могут передать prometheus.NewRegistry() и не зависеть от
// глобального состояния.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hftbot",
			Subsystem: "feed",
			Name:      "ticks_total",
			Help:      "Total number of completed price poll ticks",
		}),
		FeedErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hftbot",
			Subsystem: "feed",
			Name:      "errors_total",
			Help:      "Total number of failed price fetches",
		}),
		LastPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hftbot",
			Subsystem: "feed",
			Name:      "last_price",
			Help:      "Last observed price for the tracked symbol",
		}),
		ConfidencePct: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hftbot",
			Subsystem: "signal",
			Name:      "confidence_percent",
			Help:      "Trigger confidence of the last evaluated tick (0-100)",
		}),
		TriggersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hftbot",
			Subsystem: "signal",
			Name:      "triggers_total",
			Help:      "Total number of threshold crossings by direction",
		}, []string{"direction"}),
		TradesOpenedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hftbot",
			Subsystem: "trades",
			Name:      "opened_total",
			Help:      "Total number of opened trades by mode and side",
		}, []string{"mode", "side"}),
		TradesClosedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hftbot",
			Subsystem: "trades",
			Name:      "closed_total",
			Help:      "Total number of closed trades by result",
		}, []string{"result"}),
		GatewayErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hftbot",
			Subsystem: "gateway",
			Name:      "errors_total",
			Help:      "Total number of rejected or failed order submissions",
		}),
	}
}

// Handler отдает HTTP-обработчик эндпоинта /metrics для переданного реестра
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
