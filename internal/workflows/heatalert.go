package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// HeatAlertInput is the input for the heat alert workflow.
type HeatAlertInput struct {
	// Source is stored on the issued alert, e.g. "scheduler".
	Source string
}

// HeatAlertResult summarises one run.
type HeatAlertResult struct {
	AlertID     string
	RiskLevel   domain.RiskLevel
	HeatIndex   float64
	Broadcasted bool
}

// HeatAlertWorkflow fetches the current weather, stores the resulting heat
// alert and broadcasts it when the risk is high enough. A failed broadcast
// does not fail the run; the alert is already stored.
func HeatAlertWorkflow(ctx workflow.Context, input HeatAlertInput) (HeatAlertResult, error) {
	logger := workflow.GetLogger(ctx)
	if input.Source == "" {
		input.Source = "scheduler"
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	})

	var weather domain.Weather
	if err := workflow.ExecuteActivity(ctx, "FetchWeather").Get(ctx, &weather); err != nil {
		return HeatAlertResult{}, err
	}

	var alert domain.HeatAlert
	if err := workflow.ExecuteActivity(ctx, "IssueAlert", weather, input.Source).Get(ctx, &alert); err != nil {
		return HeatAlertResult{}, err
	}
	result := HeatAlertResult{AlertID: alert.ID, RiskLevel: alert.RiskLevel, HeatIndex: alert.HeatIndex}

	bctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 2},
	})
	if err := workflow.ExecuteActivity(bctx, "BroadcastAlert", alert).Get(bctx, &result.Broadcasted); err != nil {
		logger.Warn("heat alert broadcast failed", "alertID", alert.ID, "error", err)
		result.Broadcasted = false
	}

	logger.Info("heat alert issued", "alertID", alert.ID, "risk", alert.RiskLevel, "broadcast", result.Broadcasted)
	return result, nil
}
