// Package monitoring raises threshold alerts for pipeline batches and
// visibility audits and delivers them to a webhook.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/config"
	"github.com/sells-group/citation-intel/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertBatchFailureRate  AlertType = "batch_failure_rate"
	AlertHallucinationRate AlertType = "hallucination_rate"
	AlertCostOverrun       AlertType = "cost_overrun"
	AlertLowShareOfVoice   AlertType = "low_share_of_voice"
)

// minProcessed is the smallest batch whose rates are worth alerting on.
const minProcessed = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates batch and audit summaries against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// EvaluateBatch checks one pipeline run's summary.
func (a *Alerter) EvaluateBatch(runID string, sum model.BatchSummary) []Alert {
	if sum.Processed < minProcessed {
		return nil
	}
	var alerts []Alert
	now := time.Now().UTC()

	failRate := float64(sum.Failed) / float64(sum.Processed)
	if a.cfg.FailureRateThreshold > 0 && failRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertBatchFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Run %s failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d processed)",
				runID, failRate*100, a.cfg.FailureRateThreshold*100, sum.Failed, sum.Processed,
			),
			Details: map[string]any{
				"run_id":       runID,
				"failure_rate": failRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       sum.Failed,
				"processed":    sum.Processed,
			},
			Timestamp: now,
		})
	}

	halRate := float64(sum.Hallucinated) / float64(sum.Processed)
	if a.cfg.HallucinationRateThreshold > 0 && halRate > a.cfg.HallucinationRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertHallucinationRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Run %s hallucinated citation rate %.1f%% exceeds threshold %.1f%% (%d of %d)",
				runID, halRate*100, a.cfg.HallucinationRateThreshold*100, sum.Hallucinated, sum.Processed,
			),
			Details: map[string]any{
				"run_id":             runID,
				"hallucination_rate": halRate,
				"threshold":          a.cfg.HallucinationRateThreshold,
				"hallucinated":       sum.Hallucinated,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// EvaluateAudit checks one audit's summary for spend and visibility.
func (a *Alerter) EvaluateAudit(brand string, sum model.AuditSummary) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if a.cfg.CostThresholdUSD > 0 && sum.CostUSD > a.cfg.CostThresholdUSD {
		alerts = append(alerts, Alert{
			Type:     AlertCostOverrun,
			Severity: "high",
			Message: fmt.Sprintf(
				"Audit for %s cost $%.2f, exceeding threshold $%.2f",
				brand, sum.CostUSD, a.cfg.CostThresholdUSD,
			),
			Details: map[string]any{
				"cost_usd":      sum.CostUSD,
				"threshold_usd": a.cfg.CostThresholdUSD,
				"answers":       sum.TotalAnswers,
			},
			Timestamp: now,
		})
	}

	if a.cfg.MinShareOfVoice > 0 && sum.SuccessfulAnswers > 0 && sum.ShareOfVoice < a.cfg.MinShareOfVoice {
		alerts = append(alerts, Alert{
			Type:     AlertLowShareOfVoice,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%s share of voice %d%% is below %d%% (%d of %d answers mention the brand)",
				brand, sum.ShareOfVoice, a.cfg.MinShareOfVoice, sum.MentionedAnswers, sum.SuccessfulAnswers,
			),
			Details: map[string]any{
				"brand":          brand,
				"share_of_voice": sum.ShareOfVoice,
				"minimum":        a.cfg.MinShareOfVoice,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// Notify logs alerts and delivers them to the webhook, if configured.
// It is safe to call on a nil Alerter.
func (a *Alerter) Notify(ctx context.Context, alerts []Alert) int {
	if a == nil {
		return 0
	}
	for _, alert := range alerts {
		zap.L().Warn("monitoring: threshold breached",
			zap.String("type", string(alert.Type)),
			zap.String("message", alert.Message),
		)
	}
	return a.SendAlerts(ctx, alerts)
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
