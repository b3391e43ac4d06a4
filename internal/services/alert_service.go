package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lumenops/logsleuth/internal/metrics"
	"github.com/lumenops/logsleuth/internal/models"
	"github.com/lumenops/logsleuth/internal/utils"
)

// TicketingClient defines the ticketing operations the alert flow needs.
type TicketingClient interface {
	LatestPullRequest(ctx context.Context, owner, repo string) (int, error)
	PostIssueComment(ctx context.Context, owner, repo string, number int, body string) (string, error)
}

// Investigator produces an investigation for one alert payload.
type Investigator interface {
	Investigate(ctx context.Context, payload models.AlertPayload, raw []byte) models.Investigation
}

// AlertService orchestrates one alert end to end: investigate, pick the
// target pull request, post the comment, and assemble the acknowledgment.
// Every outcome acknowledges OK so the monitoring system never retries.
type AlertService struct {
	logger       *slog.Logger
	investigator Investigator
	ticketing    TicketingClient
	latencies    *utils.LatencyTracker
}

// NewAlertService constructs the alert facade.
func NewAlertService(logger *slog.Logger, investigator Investigator, ticketing TicketingClient) *AlertService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertService{
		logger:       logger,
		investigator: investigator,
		ticketing:    ticketing,
		latencies:    utils.NewLatencyTracker(1024),
	}
}

// HandleAlert processes one inbound webhook payload.
func (s *AlertService) HandleAlert(ctx context.Context, payload models.AlertPayload, raw []byte) models.AlertAck {
	start := time.Now()
	ack := s.handle(ctx, payload, raw)
	duration := time.Since(start)

	outcome := metrics.OutcomeSuccess
	if ack.Note != "" && ack.Note != models.NoteBadRepoSlug && ack.Note != models.NoteNoPRsFound {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveAlert(duration, outcome)
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("alert handling latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}
	return ack
}

func (s *AlertService) handle(ctx context.Context, payload models.AlertPayload, raw []byte) models.AlertAck {
	inv := s.investigator.Investigate(ctx, payload, raw)
	ack := models.AlertAck{OK: true, Note: inv.Note, LogErrors: inv.LogErrors}

	if inv.Note != "" {
		s.logger.Warn("skipping ticketing", slog.String("investigation", inv.ID), slog.String("note", inv.Note))
		return ack
	}

	owner, repo, ok := strings.Cut(inv.RepoSlug, "/")
	if !ok {
		// chooseRepo guarantees a slash; this only guards future callers.
		ack.Note = models.NoteBadRepoSlug
		return ack
	}
	ack.Repo = inv.RepoSlug

	number, err := s.ticketing.LatestPullRequest(ctx, owner, repo)
	if err != nil {
		s.logger.Error("pull request lookup failed",
			slog.String("investigation", inv.ID), slog.String("repo", inv.RepoSlug), slog.Any("error", err))
		ack.Note = "pr_lookup_failed: " + utils.TruncateText(err.Error(), 300)
		return ack
	}
	if number == 0 {
		s.logger.Warn("no pull requests in repository",
			slog.String("investigation", inv.ID), slog.String("repo", inv.RepoSlug))
		ack.Note = models.NoteNoPRsFound
		return ack
	}
	ack.PR = number

	url, err := s.ticketing.PostIssueComment(ctx, owner, repo, number, inv.Body)
	if err != nil {
		metrics.ObserveCommentPost(metrics.OutcomeError)
		s.logger.Error("comment post failed",
			slog.String("investigation", inv.ID), slog.String("repo", inv.RepoSlug),
			slog.Int("pr", number), slog.Any("error", err))
		ack.Note = "comment_post_failed: " + utils.TruncateText(err.Error(), 300)
		return ack
	}
	metrics.ObserveCommentPost(metrics.OutcomeSuccess)
	ack.CommentURL = url

	s.logger.Info("alert comment posted",
		slog.String("investigation", inv.ID), slog.String("repo", inv.RepoSlug),
		slog.Int("pr", number), slog.String("url", url))
	return ack
}

// LatencyP95 returns the current p95 alert handling latency.
func (s *AlertService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}
