package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the broker.
type Metrics struct {
	EventsTotal    *prometheus.CounterVec // labels: type
	OrdersTotal    *prometheus.CounterVec // labels: strategy, side
	OrderMWh       *prometheus.HistogramVec
	SendFailures   prometheus.Counter
	TargetFailures prometheus.Counter
	RoundsTotal    prometheus.Counter
	RoundDuration  prometheus.Histogram
	DPRuns         prometheus.Counter
	DPStages       prometheus.Gauge
	QueueDepth     prometheus.Gauge
	ForecastError  *prometheus.GaugeVec // labels: lead
	MeanPrice      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powerbroker_events_total",
			Help: "Inbound events processed by type",
		}, []string{"type"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powerbroker_orders_total",
			Help: "Wholesale orders sent by pricing strategy and side",
		}, []string{"strategy", "side"}),
		OrderMWh: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "powerbroker_order_mwh",
			Help:    "Absolute order volume in MWh",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 50},
		}, []string{"side"}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "powerbroker_send_failures_total",
			Help: "Orders the sink rejected",
		}),
		TargetFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "powerbroker_target_failures_total",
			Help: "Target timeslots skipped due to an error during activation",
		}),
		RoundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "powerbroker_rounds_total",
			Help: "Activation rounds completed",
		}),
		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "powerbroker_round_duration_seconds",
			Help:    "Wall time of one activation round",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		DPRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "powerbroker_dp_runs_total",
			Help: "Full recomputes of the limit-price solver",
		}),
		DPStages: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "powerbroker_dp_stages",
			Help: "Stages solved in the latest solver run",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "powerbroker_queue_depth",
			Help: "Messages waiting in the agent queue",
		}),
		ForecastError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "powerbroker_forecast_error_kwh",
			Help: "Actual minus predicted usage of the previous timeslot, by lead",
		}, []string{"lead"}),
		MeanPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "powerbroker_mean_market_price",
			Help: "Volume-weighted mean clearing price per MWh",
		}),
	}

	reg.MustRegister(
		m.EventsTotal,
		m.OrdersTotal,
		m.OrderMWh,
		m.SendFailures,
		m.TargetFailures,
		m.RoundsTotal,
		m.RoundDuration,
		m.DPRuns,
		m.DPStages,
		m.QueueDepth,
		m.ForecastError,
		m.MeanPrice,
	)

	return m
}

// ObserveOrder counts one sent order.
func (m *Metrics) ObserveOrder(strategy string, mwh float64) {
	side := "buy"
	if mwh < 0 {
		side = "sell"
		mwh = -mwh
	}
	m.OrdersTotal.WithLabelValues(strategy, side).Inc()
	m.OrderMWh.WithLabelValues(side).Observe(mwh)
}

// ObserveRound records one completed activation round.
func (m *Metrics) ObserveRound(start time.Time) {
	m.RoundsTotal.Inc()
	m.RoundDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetForecastError(lead int, kwh float64) {
	m.ForecastError.WithLabelValues(strconv.Itoa(lead)).Set(kwh)
}

// Server exposes /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down metrics server: %w", err)
	}
	return nil
}
