// Package sse streams a Sequence as Server-Sent Events and reads such a
// stream back as a Sequence.
//
// Every element is one "element" event whose id is its 1-based position. A
// completed enumeration ends with an "end" event carrying the element count;
// a fault ends it with an "error" event carrying the JSON error body. While
// the source is slow to produce, keep-alive comments hold the connection
// open through proxies.
//
//	router.GET("/events/orders", sse.Handler(orders, sse.HandlerOptions{Service: "api"}))
//
//	orders := sse.Source[Order](http.DefaultClient, url, sse.Options{})
package sse
