package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

// Нагрузочный прогон HTTP API размещения заказов. Полезен в том числе для
// проверки, что при конкурентных размещениях остаток не уходит в минус:
// при общем запрошенном количестве выше остатка часть запросов должна
// завершиться кодом 409.

type config struct {
	baseURL    string
	customerID string
	productID  string
	qty        int
	workers    int
	requests   int
	timeout    time.Duration
}

type placeOrderLine struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type placeOrderBody struct {
	CustomerID string           `json:"customer_id"`
	Lines      []placeOrderLine `json:"lines"`
}

type latencySummary struct {
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

type report struct {
	Total          int            `json:"total"`
	Placed         int            `json:"placed"`
	OutOfStock     int            `json:"out_of_stock"`
	ClientErrors   int            `json:"client_errors"`
	ServerErrors   int            `json:"server_errors"`
	TransportFails int            `json:"transport_fails"`
	DurationMs     float64        `json:"duration_ms"`
	RPS            float64        `json:"rps"`
	Latency        latencySummary `json:"latency"`
}

type sample struct {
	status  int
	latency time.Duration
	failed  bool
}

func main() {
	cfg := parseFlags()

	body, err := json.Marshal(placeOrderBody{
		CustomerID: cfg.customerID,
		Lines:      []placeOrderLine{{ProductID: cfg.productID, Qty: int32(cfg.qty)}},
	})
	if err != nil {
		fail("marshal request body: %v", err)
	}

	client := &http.Client{Timeout: cfg.timeout}
	url := cfg.baseURL + "/v1/orders"

	total := cfg.workers * cfg.requests
	samples := make([]sample, total)

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < cfg.requests; i++ {
				idx := worker*cfg.requests + i
				samples[idx] = placeOnce(client, url, body)
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	rep := buildReport(samples, elapsed)

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		fail("marshal report: %v", err)
	}
	fmt.Println(string(out))
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.baseURL, "url", "http://localhost:8080", "base URL of the order service")
	flag.StringVar(&cfg.customerID, "customer", "", "customer id to place orders for (required)")
	flag.StringVar(&cfg.productID, "product", "", "product id to order (required)")
	flag.IntVar(&cfg.qty, "qty", 1, "quantity per order line")
	flag.IntVar(&cfg.workers, "workers", 10, "number of concurrent workers")
	flag.IntVar(&cfg.requests, "requests", 20, "requests per worker")
	flag.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	if cfg.customerID == "" || cfg.productID == "" {
		fail("-customer and -product are required (run cmd/seed to get ids)")
	}
	if cfg.qty <= 0 || cfg.workers <= 0 || cfg.requests <= 0 {
		fail("-qty, -workers and -requests must be positive")
	}
	return cfg
}

func placeOnce(client *http.Client, url string, body []byte) sample {
	started := time.Now()
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	latency := time.Since(started)
	if err != nil {
		return sample{latency: latency, failed: true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return sample{status: resp.StatusCode, latency: latency}
}

func buildReport(samples []sample, elapsed time.Duration) report {
	rep := report{
		Total:      len(samples),
		DurationMs: float64(elapsed.Microseconds()) / 1000,
	}
	if elapsed > 0 {
		rep.RPS = float64(len(samples)) / elapsed.Seconds()
	}

	latencies := make([]time.Duration, 0, len(samples))
	for _, s := range samples {
		latencies = append(latencies, s.latency)
		switch {
		case s.failed:
			rep.TransportFails++
		case s.status == http.StatusCreated:
			rep.Placed++
		case s.status == http.StatusConflict:
			rep.OutOfStock++
		case s.status >= 400 && s.status < 500:
			rep.ClientErrors++
		default:
			rep.ServerErrors++
		}
	}

	rep.Latency = summarize(latencies)
	return rep
}

func summarize(latencies []time.Duration) latencySummary {
	if len(latencies) == 0 {
		return latencySummary{}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var total time.Duration
	for _, l := range latencies {
		total += l
	}

	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	percentile := func(p float64) time.Duration {
		idx := int(p * float64(len(latencies)-1))
		return latencies[idx]
	}

	return latencySummary{
		MinMs: ms(latencies[0]),
		MaxMs: ms(latencies[len(latencies)-1]),
		AvgMs: ms(total / time.Duration(len(latencies))),
		P50Ms: ms(percentile(0.50)),
		P95Ms: ms(percentile(0.95)),
		P99Ms: ms(percentile(0.99)),
	}
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
