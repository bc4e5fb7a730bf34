package main

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/seqkit/eq"
	"github.com/kbukum/seqkit/kvsource"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/ndjson"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/resilience"
	"github.com/kbukum/seqkit/seq"
)

// reports builds the demo pipelines over the bolt store. Every pipeline is a
// Sequence, so nothing is read until a report is enumerated.
type reports struct {
	store   *kvsource.Store
	cfg     StoreConfig
	metrics *observability.Metrics
	log     *logger.Logger
}

func observed[T any](r *reports, s seq.Sequence[T], name string) seq.Sequence[T] {
	return seq.Logged(seq.Metered(seq.Traced(s, name), r.metrics, name), r.log, name)
}

func value[T any](rec kvsource.Record[T]) T { return rec.Value }

func (r *reports) customers() seq.Sequence[Customer] {
	return seq.Select(kvsource.Bucket(r.store, r.cfg.CustomersBucket, kvsource.JSONDecoder[Customer]()), value[Customer])
}

func (r *reports) orders() seq.Sequence[Order] {
	return seq.Select(kvsource.Bucket(r.store, r.cfg.OrdersBucket, kvsource.JSONDecoder[Order]()), value[Order])
}

// orderLines joins every order that has a customer with that customer,
// keeping order key order. A non-empty city keeps only that city's lines.
func (r *reports) orderLines(city string) seq.Sequence[OrderLine] {
	lines := seq.Join(r.orders(), r.customers(),
		func(o Order) string { return o.CustomerID },
		func(c Customer) string { return c.ID },
		func(o Order, c Customer) OrderLine {
			return OrderLine{OrderID: o.ID, Customer: c.Name, City: c.City, Status: o.Status, Total: o.Total}
		})
	if city != "" {
		lines = seq.Where(lines, func(l OrderLine) bool { return strings.EqualFold(l.City, city) })
	}
	return observed(r, lines, "report.order_lines")
}

// customerSummaries pairs each customer with their orders, including
// customers who never ordered.
func (r *reports) customerSummaries() seq.Sequence[CustomerSummary] {
	summaries := seq.GroupJoin(r.customers(), r.orders(),
		func(c Customer) string { return c.ID },
		func(o Order) string { return o.CustomerID },
		func(c Customer, orders []Order) CustomerSummary {
			s := CustomerSummary{CustomerID: c.ID, Name: c.Name, Orders: len(orders), OrderIDs: []string{}}
			for _, o := range orders {
				s.Spent += o.Total
				s.OrderIDs = append(s.OrderIDs, o.ID)
			}
			return s
		})
	return observed(r, summaries, "report.customers")
}

// statusCounts groups orders by status in first-seen order.
func (r *reports) statusCounts() seq.Sequence[StatusCount] {
	counts := seq.GroupByResult(r.orders(),
		func(o Order) string { return o.Status },
		func(status string, orders []Order) StatusCount {
			c := StatusCount{Status: status, Orders: len(orders)}
			for _, o := range orders {
				c.Total += o.Total
			}
			return c
		})
	return observed(r, counts, "report.status")
}

// CityGroup lists the customers of one city.
type CityGroup struct {
	City      string   `json:"city"`
	Customers []string `json:"customers"`
}

// cities groups customer names by city, treating "oslo" and "Oslo" as the
// same city. The first spelling seen names the group.
func (r *reports) cities() seq.Sequence[CityGroup] {
	groups := seq.GroupByWith(r.customers(),
		func(_ context.Context, c Customer) (string, error) { return c.City, nil },
		func(_ context.Context, c Customer) (string, error) { return c.Name, nil },
		eq.FoldString())
	return observed(r, seq.Select(groups, func(g *seq.Grouping[string, string]) CityGroup {
		return CityGroup{City: g.Key(), Customers: g.Elements()}
	}), "report.cities")
}

// seed writes sample customers and orders.
func (r *reports) seed(ctx context.Context, customers, orders int) error {
	n, err := kvsource.Load(ctx, r.store, r.cfg.CustomersBucket,
		seq.FromSlice(sampleCustomers(customers)), func(c Customer) string { return c.ID }, kvsource.JSONEncoder[Customer]())
	if err != nil {
		return err
	}
	m, err := kvsource.Load(ctx, r.store, r.cfg.OrdersBucket,
		seq.FromSlice(sampleOrders(orders, customers)), func(o Order) string { return o.ID }, kvsource.JSONEncoder[Order]())
	if err != nil {
		return err
	}
	r.log.Info("store seeded", logger.Fields("customers", n, "orders", m))
	return nil
}

// importOrders copies the orders of a remote NDJSON feed into the store.
// Orders repeated by the feed are written once.
func (r *reports) importOrders(ctx context.Context, url string, cfg ImportConfig) (int, error) {
	retry := resilience.DefaultRetryConfig("import " + url)
	retry.MaxAttempts = cfg.MaxAttempts

	client, err := cfg.TLS.HTTPClient(cfg.Timeout)
	if err != nil {
		return 0, err
	}
	breaker := resilience.CircuitBreakerConfig{Name: "import", MaxFailures: cfg.MaxFailures, Cooldown: 30 * time.Second}
	feed := ndjson.Source[Order](client, url, ndjson.Options{
		Retry:   retry,
		Breaker: resilience.NewCircuitBreaker(breaker),
	})

	unique := seq.DistinctWith(feed, eq.By(func(o Order) string { return o.ID }))
	return kvsource.Load(ctx, r.store, r.cfg.OrdersBucket, observed(r, unique, "import.orders"),
		func(o Order) string { return o.ID }, kvsource.JSONEncoder[Order]())
}
