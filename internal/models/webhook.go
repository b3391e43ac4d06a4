package models

// AlertPayload is the inbound monitoring webhook body. Every field is
// optional; absent fields fall back to documented defaults instead of
// failing the request.
type AlertPayload struct {
	Incident IncidentPayload `json:"incident"`
}

// IncidentPayload mirrors the monitoring system's incident shape.
type IncidentPayload struct {
	StartedAt    int64           `json:"started_at"`
	ResourceName string          `json:"resource_name"`
	Resource     ResourcePayload `json:"resource"`
}

// ResourcePayload carries the labels attached to the incident resource.
type ResourcePayload struct {
	Labels map[string]string `json:"labels"`
}

// AlertAck is the acknowledgment returned to the monitoring system. The
// webhook always answers 200 with OK set; partial failures ride along in
// Note and LogErrors so the caller's retry logic never fires.
type AlertAck struct {
	OK         bool     `json:"ok"`
	Repo       string   `json:"repo,omitempty"`
	PR         int      `json:"pr,omitempty"`
	CommentURL string   `json:"comment_url,omitempty"`
	Note       string   `json:"note,omitempty"`
	LogErrors  []string `json:"log_errors,omitempty"`
}

// Ack note values for benign short-circuit outcomes.
const (
	NoteBadRepoSlug = "bad_repo_slug"
	NoteNoPRsFound  = "no_prs_found"
)
