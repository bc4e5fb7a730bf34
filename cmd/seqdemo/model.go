package main

import (
	"fmt"
	"time"
)

// Customer is a record of the customers bucket.
type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// Order is a record of the orders bucket. CustomerID may be empty for
// orders placed without an account.
type Order struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Status     string    `json:"status"`
	Total      int64     `json:"total_cents"`
	PlacedAt   time.Time `json:"placed_at"`
}

// OrderLine is an order joined with its customer.
type OrderLine struct {
	OrderID  string `json:"order_id"`
	Customer string `json:"customer"`
	City     string `json:"city"`
	Status   string `json:"status"`
	Total    int64  `json:"total_cents"`
}

// CustomerSummary is a customer with the orders they placed.
type CustomerSummary struct {
	CustomerID string   `json:"customer_id"`
	Name       string   `json:"name"`
	Orders     int      `json:"orders"`
	Spent      int64    `json:"spent_cents"`
	OrderIDs   []string `json:"order_ids"`
}

// StatusCount is the number of orders in one status, in first-seen order.
type StatusCount struct {
	Status string `json:"status"`
	Orders int    `json:"orders"`
	Total  int64  `json:"total_cents"`
}

var (
	cities   = []string{"Oslo", "Lyon", "Porto", "Gdansk", "Turku"}
	names    = []string{"Ada", "Bo", "Chen", "Dara", "Emil", "Farah", "Gus", "Hana", "Ivo", "Jun"}
	statuses = []string{"placed", "paid", "shipped", "delivered", "returned"}
)

// sampleCustomers returns n deterministic customers.
func sampleCustomers(n int) []Customer {
	out := make([]Customer, n)
	for i := range out {
		out[i] = Customer{
			ID:   fmt.Sprintf("c%04d", i+1),
			Name: names[i%len(names)],
			City: cities[(i*7)%len(cities)],
		}
	}
	return out
}

// sampleOrders returns n deterministic orders spread over customers. Every
// eleventh order has no customer.
func sampleOrders(n, customers int) []Order {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	out := make([]Order, n)
	for i := range out {
		o := Order{
			ID:       fmt.Sprintf("o%05d", i+1),
			Status:   statuses[(i*3)%len(statuses)],
			Total:    int64(500 + (i*3779)%20000),
			PlacedAt: base.Add(time.Duration(i) * 37 * time.Minute),
		}
		if i%11 != 10 && customers > 0 {
			o.CustomerID = fmt.Sprintf("c%04d", (i*13)%customers+1)
		}
		out[i] = o
	}
	return out
}
