package corpus

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

// MemoryStore is an in-process Store snapshot. Cases, evidence, and legal
// facts are set once at construction and never mutated; alerts,
// connections, and priority actions are swapped wholesale by
// ReplaceHealthCheckResults, matching the spec's lifecycle notes.
type MemoryStore struct {
	mu sync.RWMutex

	cases    map[string]models.Case
	evidence map[string][]models.EvidenceItem
	legal    map[string]models.LegalFact

	alerts      []models.Alert
	connections []models.Connection
	actions     []models.PriorityAction
}

// NewMemoryStore builds a snapshot from loaded data. Evidence not bound to a
// known case is dropped immediately, and Alerts/Connections that reference
// no known case are dropped at read time (invariant 2).
func NewMemoryStore(cases []models.Case, evidence []models.EvidenceItem, legal []models.LegalFact) *MemoryStore {
	s := &MemoryStore{
		cases:    make(map[string]models.Case, len(cases)),
		evidence: make(map[string][]models.EvidenceItem),
		legal:    make(map[string]models.LegalFact, len(legal)),
	}
	for _, c := range cases {
		s.cases[c.CaseNumber] = c
	}
	for _, e := range evidence {
		if _, ok := s.cases[e.CaseNumber]; !ok {
			continue
		}
		s.evidence[e.CaseNumber] = append(s.evidence[e.CaseNumber], e)
	}
	for _, lf := range legal {
		s.legal[lf.CitationToken] = lf
	}
	return s
}

func (s *MemoryStore) GetCase(_ context.Context, caseNumber string) (models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseNumber]
	if !ok {
		return models.Case{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetCaseMarkdown(ctx context.Context, caseNumber string) (string, error) {
	s.mu.RLock()
	c, ok := s.cases[caseNumber]
	ev := append([]models.EvidenceItem(nil), s.evidence[caseNumber]...)
	s.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return renderCaseMarkdown(c, ev), nil
}

func (s *MemoryStore) SearchCases(_ context.Context, filter CaseFilter) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []string
	for cn, c := range s.cases {
		if !matchesCase(c, filter) {
			continue
		}
		matches = append(matches, cn)
	}
	sort.Strings(matches)
	return matches, nil
}

func matchesCase(c models.Case, f CaseFilter) bool {
	if f.Officer != "" && !strings.EqualFold(c.Officer, f.Officer) {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Charge != "" {
		found := false
		for _, ch := range c.Charges {
			if strings.Contains(strings.ToLower(ch), strings.ToLower(f.Charge)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.DateFrom.IsZero() && c.FilingDate.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && c.FilingDate.After(f.DateTo) {
		return false
	}
	return true
}

func (s *MemoryStore) GetLegalFact(_ context.Context, citationToken string) (models.LegalFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lf, ok := s.legal[citationToken]
	if !ok {
		return models.LegalFact{}, ErrNotFound
	}
	return lf, nil
}

func (s *MemoryStore) SearchLegal(_ context.Context, filter LegalFilter) ([]models.LegalFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []models.LegalFact
	for _, lf := range s.legal {
		if filter.Jurisdiction != "" && !strings.EqualFold(lf.Jurisdiction, filter.Jurisdiction) {
			continue
		}
		if filter.Term != "" {
			term := strings.ToLower(filter.Term)
			if !strings.Contains(strings.ToLower(lf.Title), term) &&
				!strings.Contains(strings.ToLower(lf.Summary), term) &&
				!strings.Contains(strings.ToLower(lf.Holding), term) {
				continue
			}
		}
		matches = append(matches, lf)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CitationToken < matches[j].CitationToken })
	return matches, nil
}

func (s *MemoryStore) ListAlerts(_ context.Context, filter AlertFilter) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Alert
	for _, a := range s.alerts {
		if a.CaseNumber != "" {
			if _, ok := s.cases[a.CaseNumber]; !ok {
				continue // invariant 2: dangling reference dropped at read time
			}
		}
		if filter.CaseNumber != "" && a.CaseNumber != filter.CaseNumber {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *MemoryStore) ListConnections(_ context.Context, filter ConnectionFilter) ([]models.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Connection
	for _, conn := range s.connections {
		if !s.hasKnownCase(conn.CaseNumbers) {
			continue // invariant 2
		}
		if filter.CaseNumber != "" && !conn.ReferencesCase(filter.CaseNumber) {
			continue
		}
		if filter.Type != "" && conn.Type != filter.Type {
			continue
		}
		out = append(out, conn)
	}
	return out, nil
}

// hasKnownCase reports whether at least one referenced case number still
// exists; a Connection with zero surviving references is fully dangling.
func (s *MemoryStore) hasKnownCase(caseNumbers []string) bool {
	for _, cn := range caseNumbers {
		if _, ok := s.cases[cn]; ok {
			return true
		}
	}
	return false
}

func (s *MemoryStore) ListPriorityActions(_ context.Context) ([]models.PriorityAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.PriorityAction
	for _, pa := range s.actions {
		if _, ok := s.cases[pa.CaseNumber]; !ok {
			continue
		}
		out = append(out, pa)
	}
	return out, nil
}

func (s *MemoryStore) GetEvidence(_ context.Context, caseNumber string) ([]models.EvidenceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.cases[caseNumber]; !ok {
		return nil, ErrNotFound
	}
	return append([]models.EvidenceItem(nil), s.evidence[caseNumber]...), nil
}

func (s *MemoryStore) AllCaseNumbers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.cases))
	for cn := range s.cases {
		out = append(out, cn)
	}
	sort.Strings(out)
	return out, nil
}

// ReplaceHealthCheckResults implements HealthCheckWriter: each health-check
// run supersedes the previous Alerts/Connections/PriorityActions wholesale.
func (s *MemoryStore) ReplaceHealthCheckResults(_ context.Context, alerts []models.Alert, connections []models.Connection, actions []models.PriorityAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append([]models.Alert(nil), alerts...)
	s.connections = append([]models.Connection(nil), connections...)
	s.actions = append([]models.PriorityAction(nil), actions...)
	return nil
}
