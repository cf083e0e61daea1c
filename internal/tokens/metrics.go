package tokens

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes the Accountant's cumulative tally as Prometheus counters
// for the /metrics endpoint (spec's supplemented metrics surface). It reads
// the tally fresh on every Collect call rather than caching, so scrapes
// never race a concurrent Add.
type Collector struct {
	accountant *Accountant

	inputDesc    *prometheus.Desc
	outputDesc   *prometheus.Desc
	thinkingDesc *prometheus.Desc
	callDesc     *prometheus.Desc
}

// NewCollector wraps accountant for Prometheus registration.
func NewCollector(accountant *Accountant) *Collector {
	return &Collector{
		accountant:   accountant,
		inputDesc:    prometheus.NewDesc("casenexus_tokens_input_total", "Cumulative input tokens billed across all providers.", nil, nil),
		outputDesc:   prometheus.NewDesc("casenexus_tokens_output_total", "Cumulative output tokens billed across all providers.", nil, nil),
		thinkingDesc: prometheus.NewDesc("casenexus_tokens_thinking_total", "Cumulative extended-thinking tokens billed across all providers.", nil, nil),
		callDesc:     prometheus.NewDesc("casenexus_llm_calls_total", "Cumulative completed LLM calls.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inputDesc
	ch <- c.outputDesc
	ch <- c.thinkingDesc
	ch <- c.callDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	tally := c.accountant.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.inputDesc, prometheus.CounterValue, float64(tally.TotalInput))
	ch <- prometheus.MustNewConstMetric(c.outputDesc, prometheus.CounterValue, float64(tally.TotalOutput))
	ch <- prometheus.MustNewConstMetric(c.thinkingDesc, prometheus.CounterValue, float64(tally.TotalThinking))
	ch <- prometheus.MustNewConstMetric(c.callDesc, prometheus.CounterValue, float64(tally.CallCount))
}
