package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for HTTP requests and model usage.
// This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	modelCalls = make(map[modelKey]int64)

	aggregateSearchesTotal int64
	aggregateFanoutTotal   int64
	aggregateMatchesTotal  int64

	chatTurnsTotal int64
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

type modelKey struct {
	Op      string
	Success string
}

// RecordRequest increments request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordModelCall counts one generative-model call by operation
// (wine_search, describe, interpret, chat) and outcome.
func RecordModelCall(op string, success bool) {
	mu.Lock()
	defer mu.Unlock()

	s := "false"
	if success {
		s = "true"
	}
	modelCalls[modelKey{Op: op, Success: s}]++
}

// RecordAggregateSearch records one cross-winery search: how many
// wineries were queried and how many matches survived filtering.
func RecordAggregateSearch(fanout, matches int) {
	mu.Lock()
	defer mu.Unlock()

	aggregateSearchesTotal++
	aggregateFanoutTotal += int64(fanout)
	aggregateMatchesTotal += int64(matches)
}

// RecordChatTurn counts one completed chat exchange.
func RecordChatTurn() {
	mu.Lock()
	defer mu.Unlock()
	chatTurnsTotal++
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP terroir_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE terroir_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		v := requestsTotal[k]
		fmt.Fprintf(&b, "terroir_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, v)
	}

	b.WriteString("# HELP terroir_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE terroir_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP terroir_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE terroir_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		sum := latencyMsSum[k]
		cnt := latencyMsCount[k]
		fmt.Fprintf(&b, "terroir_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, sum)
		fmt.Fprintf(&b, "terroir_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, cnt)
	}

	b.WriteString("# HELP terroir_model_calls_total Total generative-model calls by operation and outcome\n")
	b.WriteString("# TYPE terroir_model_calls_total counter\n")

	var modelKeys []modelKey
	for k := range modelCalls {
		modelKeys = append(modelKeys, k)
	}
	sort.Slice(modelKeys, func(i, j int) bool {
		if modelKeys[i].Op != modelKeys[j].Op {
			return modelKeys[i].Op < modelKeys[j].Op
		}
		return modelKeys[i].Success < modelKeys[j].Success
	})

	for _, k := range modelKeys {
		v := modelCalls[k]
		fmt.Fprintf(&b, "terroir_model_calls_total{op=\"%s\",success=\"%s\"} %d\n",
			k.Op, k.Success, v)
	}

	b.WriteString("# HELP terroir_aggregate_searches_total Total cross-winery searches\n")
	b.WriteString("# TYPE terroir_aggregate_searches_total counter\n")
	fmt.Fprintf(&b, "terroir_aggregate_searches_total %d\n", aggregateSearchesTotal)

	b.WriteString("# HELP terroir_aggregate_fanout_total Total per-winery lookups issued by cross-winery searches\n")
	b.WriteString("# TYPE terroir_aggregate_fanout_total counter\n")
	fmt.Fprintf(&b, "terroir_aggregate_fanout_total %d\n", aggregateFanoutTotal)

	b.WriteString("# HELP terroir_aggregate_matches_total Total matches returned by cross-winery searches\n")
	b.WriteString("# TYPE terroir_aggregate_matches_total counter\n")
	fmt.Fprintf(&b, "terroir_aggregate_matches_total %d\n", aggregateMatchesTotal)

	b.WriteString("# HELP terroir_chat_turns_total Total completed sommelier chat exchanges\n")
	b.WriteString("# TYPE terroir_chat_turns_total counter\n")
	fmt.Fprintf(&b, "terroir_chat_turns_total %d\n", chatTurnsTotal)

	return b.String()
}
