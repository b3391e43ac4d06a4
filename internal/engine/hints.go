package engine

import (
	"regexp"
	"time"

	"github.com/lumenops/logsleuth/internal/models"
)

// resourcePathPattern pulls region and service out of a monitored resource
// name such as projects/p/locations/us-central1/services/checkout.
var resourcePathPattern = regexp.MustCompile(`/locations/([^/]+)/services/([^/]+)(?:/|$)`)

// ExtractHint derives the incident hint from the alert payload. Explicit
// resource labels win over values parsed from the resource path; a missing
// start time falls back to now.
func ExtractHint(payload models.AlertPayload, now time.Time) models.IncidentHint {
	hint := models.IncidentHint{
		Service: payload.Incident.Resource.Labels["service_name"],
		Region:  payload.Incident.Resource.Labels["location"],
	}

	if hint.Service == "" || hint.Region == "" {
		if m := resourcePathPattern.FindStringSubmatch(payload.Incident.ResourceName); m != nil {
			if hint.Region == "" {
				hint.Region = m[1]
			}
			if hint.Service == "" {
				hint.Service = m[2]
			}
		}
	}

	if payload.Incident.StartedAt > 0 {
		hint.StartedAt = time.Unix(payload.Incident.StartedAt, 0).UTC()
	} else {
		hint.StartedAt = now.UTC()
	}
	return hint
}
