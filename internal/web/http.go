package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/internal/insights"
	"github.com/haasonsaas/case-nexus/internal/tokens"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

// ReadAPI serves the read-only HTTP surface documented "for completeness"
// alongside the control channel (spec §6).
type ReadAPI struct {
	store      corpus.Store
	log        insights.Log
	accountant *tokens.Accountant
}

// NewReadAPI creates a ReadAPI.
func NewReadAPI(store corpus.Store, log insights.Log, accountant *tokens.Accountant) *ReadAPI {
	return &ReadAPI{store: store, log: log, accountant: accountant}
}

// Register wires every read endpoint onto router, plus /healthz and
// /metrics. /metrics is skipped when no accountant was supplied (e.g. unit
// tests constructing a bare ReadAPI), since there is nothing to collect.
func (a *ReadAPI) Register(router gin.IRouter) {
	router.GET("/healthz", a.handleHealthz)
	router.GET("/api/cases", a.handleCases)
	router.GET("/api/case/:cn", a.handleCase)
	router.GET("/api/evidence/:cn", a.handleEvidence)
	router.GET("/api/alerts", a.handleAlerts)
	router.GET("/api/connections", a.handleConnections)
	router.GET("/api/stats", a.handleStats)
	router.GET("/api/analysis-log", a.handleAnalysisLog)

	if a.accountant != nil {
		registry := prometheus.NewRegistry()
		registry.MustRegister(tokens.NewCollector(a.accountant))
		handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		router.GET("/metrics", gin.WrapH(handler))
	}
}

func (a *ReadAPI) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *ReadAPI) handleCases(c *gin.Context) {
	numbers, err := a.store.AllCaseNumbers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cases := make([]models.Case, 0, len(numbers))
	for _, cn := range numbers {
		cs, err := a.store.GetCase(c.Request.Context(), cn)
		if err != nil {
			continue
		}
		cases = append(cases, cs)
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

func (a *ReadAPI) handleCase(c *gin.Context) {
	cn := c.Param("cn")
	cs, err := a.store.GetCase(c.Request.Context(), cn)
	if err != nil {
		a.respondStoreErr(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (a *ReadAPI) handleEvidence(c *gin.Context) {
	cn := c.Param("cn")
	items, err := a.store.GetEvidence(c.Request.Context(), cn)
	if err != nil {
		a.respondStoreErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evidence": items})
}

func (a *ReadAPI) handleAlerts(c *gin.Context) {
	filter := corpus.AlertFilter{
		CaseNumber: c.Query("case_number"),
		Severity:   models.AlertSeverity(c.Query("severity")),
	}
	alerts, err := a.store.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (a *ReadAPI) handleConnections(c *gin.Context) {
	filter := corpus.ConnectionFilter{
		CaseNumber: c.Query("case_number"),
		Type:       models.ConnectionType(c.Query("type")),
	}
	conns, err := a.store.ListConnections(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

func (a *ReadAPI) handleStats(c *gin.Context) {
	numbers, err := a.store.AllCaseNumbers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	actions, err := a.store.ListPriorityActions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var tally models.TokenTally
	if a.accountant != nil {
		tally = a.accountant.Snapshot()
	}

	c.JSON(http.StatusOK, gin.H{
		"case_count":      len(numbers),
		"priority_action": len(actions),
		"tokens":          tally,
	})
}

func (a *ReadAPI) handleAnalysisLog(c *gin.Context) {
	scope := c.Query("scope")
	limit := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	entries, err := a.log.List(c.Request.Context(), scope, "", limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": entries})
}

func (a *ReadAPI) respondStoreErr(c *gin.Context, err error) {
	if err == corpus.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
