package workflows_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/usecases"
	"github.com/calorsos/calorsos/internal/workflows"
)

type stubWeather struct {
	w   domain.Weather
	err error
}

func (s *stubWeather) Current(_ context.Context, city string) (*domain.Weather, error) {
	if s.err != nil {
		return nil, s.err
	}
	w := s.w
	w.City = city
	return &w, nil
}

type memAlerts struct {
	created []domain.HeatAlert
}

func (m *memAlerts) Create(_ context.Context, a *domain.HeatAlert) error {
	m.created = append(m.created, *a)
	return nil
}
func (m *memAlerts) GetByID(context.Context, string) (*domain.HeatAlert, error) {
	return nil, domain.ErrNotFound
}
func (m *memAlerts) Latest(context.Context) (*domain.HeatAlert, error) {
	return nil, domain.ErrNotFound
}
func (m *memAlerts) List(context.Context, int) ([]domain.HeatAlert, error) { return m.created, nil }
func (m *memAlerts) Delete(context.Context, string) error                  { return nil }

type alertPublisher struct {
	sent []string
	err  error
}

func (p *alertPublisher) PublishReportSubmitted(context.Context, *domain.Report) error       { return nil }
func (p *alertPublisher) PublishReportReviewed(context.Context, *domain.Report) error        { return nil }
func (p *alertPublisher) PublishLocationsChanged(context.Context, domain.LocationKind) error { return nil }
func (p *alertPublisher) PublishAlert(_ context.Context, a *domain.HeatAlert) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, a.ID)
	return nil
}

type HeatAlertWorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env       *testsuite.TestWorkflowEnvironment
	weather   *stubWeather
	alerts    *memAlerts
	publisher *alertPublisher
	acts      *workflows.HeatAlertActivities
}

func TestHeatAlertWorkflow(t *testing.T) {
	suite.Run(t, new(HeatAlertWorkflowSuite))
}

func (s *HeatAlertWorkflowSuite) SetupTest() {
	s.weather = &stubWeather{w: domain.Weather{Temperature: 34, Humidity: 70, UVIndex: 8}}
	s.alerts = &memAlerts{}
	s.publisher = &alertPublisher{}
	svc := usecases.NewAlertService(s.alerts, s.weather, nil, s.publisher, usecases.AlertOptions{
		City:           "Cartagena",
		BroadcastLevel: domain.RiskHigh,
	})
	s.acts = &workflows.HeatAlertActivities{Alerts: svc}

	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterWorkflow(workflows.HeatAlertWorkflow)
	s.env.RegisterActivity(s.acts)
}

func (s *HeatAlertWorkflowSuite) AfterTest(_, _ string) {
	s.env.AssertExpectations(s.T())
}

func (s *HeatAlertWorkflowSuite) result() workflows.HeatAlertResult {
	s.Require().True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())
	var res workflows.HeatAlertResult
	s.Require().NoError(s.env.GetWorkflowResult(&res))
	return res
}

func (s *HeatAlertWorkflowSuite) TestExtremeHeatIsStoredAndBroadcast() {
	s.env.ExecuteWorkflow(workflows.HeatAlertWorkflow, workflows.HeatAlertInput{})

	res := s.result()
	_, want := usecases.EvaluateRisk(34, 70, 8)
	s.Equal(want, res.RiskLevel)
	s.True(want.AtLeast(domain.RiskHigh))
	s.True(res.Broadcasted)

	s.Require().Len(s.alerts.created, 1)
	stored := s.alerts.created[0]
	s.Equal("scheduler", stored.Source)
	s.Equal(res.AlertID, stored.ID)
	s.Equal([]string{stored.ID}, s.publisher.sent)
}

func (s *HeatAlertWorkflowSuite) TestMildWeatherIsStoredNotBroadcast() {
	s.weather.w = domain.Weather{Temperature: 24, Humidity: 50}

	s.env.ExecuteWorkflow(workflows.HeatAlertWorkflow, workflows.HeatAlertInput{Source: "manual-run"})

	res := s.result()
	s.Equal(domain.RiskLow, res.RiskLevel)
	s.False(res.Broadcasted)
	s.Require().Len(s.alerts.created, 1)
	s.Equal("manual-run", s.alerts.created[0].Source)
	s.Empty(s.publisher.sent)
}

func (s *HeatAlertWorkflowSuite) TestBroadcastFailureDoesNotFailRun() {
	s.publisher.err = errors.New("nats: connection closed")

	s.env.ExecuteWorkflow(workflows.HeatAlertWorkflow, workflows.HeatAlertInput{})

	res := s.result()
	s.False(res.Broadcasted)
	s.NotEmpty(res.AlertID)
	s.Len(s.alerts.created, 1)
}

func (s *HeatAlertWorkflowSuite) TestWeatherFailureFailsRun() {
	s.env.OnActivity(s.acts.FetchWeather, mock.Anything).
		Return(domain.Weather{}, errors.New("openweather: rate limit exceeded"))

	s.env.ExecuteWorkflow(workflows.HeatAlertWorkflow, workflows.HeatAlertInput{})

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
	s.Empty(s.alerts.created)
}
