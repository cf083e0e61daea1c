package tools

import "github.com/haasonsaas/case-nexus/pkg/models"

func severityOrEmpty(s string) models.AlertSeverity {
	if s == "" {
		return ""
	}
	return models.AlertSeverity(s)
}

func connectionTypeOrEmpty(s string) models.ConnectionType {
	if s == "" {
		return ""
	}
	return models.ConnectionType(s)
}
