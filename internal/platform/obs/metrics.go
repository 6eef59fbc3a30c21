package obs

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimulationCollector exposes simulation Prometheus metrics.
// All methods are no-ops on a nil collector.
type SimulationCollector struct {
	gatherer prometheus.Gatherer

	TickDuration  prometheus.Histogram
	PlanDuration  prometheus.Histogram
	ReplansTotal  *prometheus.CounterVec
	PickedUnits   prometheus.Counter
	BlockedTotal  prometheus.Counter
	ActiveCarts   prometheus.Gauge
	PendingOrders prometheus.Gauge
	ReservedUnits prometheus.Gauge
	IndexRebuilds prometheus.Counter
}

// NewSimulationCollector registers simulation metrics against the provided registerer.
func NewSimulationCollector(reg prometheus.Registerer) (*SimulationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	tick, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "warehouse_tick_duration_seconds",
		Help:    "Wall-clock duration of one simulation tick.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.02, 0.05, 0.1},
	}), "warehouse_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	plan, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "warehouse_plan_duration_seconds",
		Help:    "Duration of order planning and re-planning.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}), "warehouse_plan_duration_seconds")
	if err != nil {
		return nil, err
	}

	replans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warehouse_replans_total",
		Help: "Re-planning attempts for blocked carts by result.",
	}, []string{"result"})
	if err := reg.Register(replans); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("collector warehouse_replans_total already registered with incompatible type")
		}
		replans = existing
	}

	picked, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warehouse_picked_units_total",
		Help: "Goods units taken off shelves by carts.",
	}), "warehouse_picked_units_total")
	if err != nil {
		return nil, err
	}

	blocked, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warehouse_cart_blocked_total",
		Help: "Ticks in which a cart reported a blocked route.",
	}), "warehouse_cart_blocked_total")
	if err != nil {
		return nil, err
	}

	rebuilds, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warehouse_index_rebuilds_total",
		Help: "Full rebuilds of the shortest-path index.",
	}), "warehouse_index_rebuilds_total")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "warehouse_active_carts",
		Help: "Carts serving active orders.",
	}), "warehouse_active_carts")
	if err != nil {
		return nil, err
	}

	pending, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "warehouse_pending_orders",
		Help: "Orders whose start time has not been reached.",
	}), "warehouse_pending_orders")
	if err != nil {
		return nil, err
	}

	reserved, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "warehouse_reserved_units",
		Help: "Goods units reserved by planned paths but not yet picked.",
	}), "warehouse_reserved_units")
	if err != nil {
		return nil, err
	}

	return &SimulationCollector{
		gatherer:      gatherer,
		TickDuration:  tick,
		PlanDuration:  plan,
		ReplansTotal:  replans,
		PickedUnits:   picked,
		BlockedTotal:  blocked,
		ActiveCarts:   active,
		PendingOrders: pending,
		ReservedUnits: reserved,
		IndexRebuilds: rebuilds,
	}, nil
}

// Handler serves the collector's gatherer in the Prometheus text format.
func (c *SimulationCollector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *SimulationCollector) ObserveTick(d time.Duration) {
	if c == nil || c.TickDuration == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
}

func (c *SimulationCollector) ObservePlan(d time.Duration) {
	if c == nil || c.PlanDuration == nil {
		return
	}
	c.PlanDuration.Observe(d.Seconds())
}

// IncReplans counts one re-planning attempt; result is "ok" or "failed".
func (c *SimulationCollector) IncReplans(result string) {
	if c == nil || c.ReplansTotal == nil {
		return
	}
	c.ReplansTotal.WithLabelValues(result).Inc()
}

func (c *SimulationCollector) AddPickedUnits(n int) {
	if c == nil || c.PickedUnits == nil || n <= 0 {
		return
	}
	c.PickedUnits.Add(float64(n))
}

func (c *SimulationCollector) IncBlocked() {
	if c == nil || c.BlockedTotal == nil {
		return
	}
	c.BlockedTotal.Inc()
}

func (c *SimulationCollector) IncIndexRebuilds() {
	if c == nil || c.IndexRebuilds == nil {
		return
	}
	c.IndexRebuilds.Inc()
}

// SetOrderCounts updates the active cart and pending order gauges.
func (c *SimulationCollector) SetOrderCounts(active, pending int) {
	if c == nil {
		return
	}
	if c.ActiveCarts != nil {
		c.ActiveCarts.Set(float64(active))
	}
	if c.PendingOrders != nil {
		c.PendingOrders.Set(float64(pending))
	}
}

func (c *SimulationCollector) SetReservedUnits(n int) {
	if c == nil || c.ReservedUnits == nil {
		return
	}
	c.ReservedUnits.Set(float64(n))
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
