package tui

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/client"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/utils"
)

// Backend is the habit API the TUI drives. It is satisfied in-process by the
// service layer and over HTTP by a running server.
type Backend interface {
	List(ctx context.Context) ([]models.Habit, error)
	Get(ctx context.Context, id string) (models.Habit, error)
	Create(ctx context.Context, in models.HabitInput) (models.Habit, error)
	Update(ctx context.Context, id string, in models.HabitInput) (models.Habit, error)
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id, date string) (models.ToggleResult, error)
	Stats(ctx context.Context) (models.StatsReport, error)
	HabitStats(ctx context.Context, id string) (models.HabitStats, error)
	Calendar(ctx context.Context, id string, days int) ([]models.CalendarDay, error)
	Insights(ctx context.Context) (models.Insights, error)
	Today() string
	// Location is the reference location used to display stored instants.
	Location() *time.Location
}

type LocalBackend struct {
	svc *service.Service
}

func NewLocalBackend(svc *service.Service) *LocalBackend {
	return &LocalBackend{svc: svc}
}

func (b *LocalBackend) List(ctx context.Context) ([]models.Habit, error) {
	return b.svc.List(ctx)
}

func (b *LocalBackend) Get(ctx context.Context, id string) (models.Habit, error) {
	return b.svc.Get(ctx, id)
}

func (b *LocalBackend) Create(ctx context.Context, in models.HabitInput) (models.Habit, error) {
	return b.svc.Create(ctx, in)
}

func (b *LocalBackend) Update(ctx context.Context, id string, in models.HabitInput) (models.Habit, error) {
	return b.svc.Update(ctx, id, in)
}

func (b *LocalBackend) Delete(ctx context.Context, id string) error {
	return b.svc.Delete(ctx, id)
}

func (b *LocalBackend) Toggle(ctx context.Context, id, date string) (models.ToggleResult, error) {
	return b.svc.Toggle(ctx, id, date)
}

func (b *LocalBackend) Stats(ctx context.Context) (models.StatsReport, error) {
	return b.svc.Stats(ctx, service.PolicyDefault)
}

func (b *LocalBackend) HabitStats(ctx context.Context, id string) (models.HabitStats, error) {
	return b.svc.HabitStats(ctx, id)
}

func (b *LocalBackend) Calendar(ctx context.Context, id string, days int) ([]models.CalendarDay, error) {
	return b.svc.Calendar(ctx, id, days)
}

func (b *LocalBackend) Insights(ctx context.Context) (models.Insights, error) {
	return b.svc.Insights(ctx)
}

func (b *LocalBackend) Today() string {
	return b.svc.Today()
}

func (b *LocalBackend) Location() *time.Location {
	return b.svc.Analyzer().Location()
}

// RemoteBackend talks to a habitual server. Today is computed locally in loc,
// which should match the server's reference location.
type RemoteBackend struct {
	client *client.Client
	loc    *time.Location
	now    func() time.Time
}

func NewRemoteBackend(c *client.Client, loc *time.Location) *RemoteBackend {
	if loc == nil {
		loc = time.UTC
	}
	return &RemoteBackend{client: c, loc: loc, now: time.Now}
}

func (b *RemoteBackend) List(ctx context.Context) ([]models.Habit, error) {
	return b.client.List(ctx)
}

func (b *RemoteBackend) Get(ctx context.Context, id string) (models.Habit, error) {
	return b.client.Get(ctx, id)
}

func (b *RemoteBackend) Create(ctx context.Context, in models.HabitInput) (models.Habit, error) {
	return b.client.Create(ctx, in)
}

func (b *RemoteBackend) Update(ctx context.Context, id string, in models.HabitInput) (models.Habit, error) {
	return b.client.Update(ctx, id, in)
}

func (b *RemoteBackend) Delete(ctx context.Context, id string) error {
	return b.client.Delete(ctx, id)
}

func (b *RemoteBackend) Toggle(ctx context.Context, id, date string) (models.ToggleResult, error) {
	return b.client.Toggle(ctx, id, date)
}

func (b *RemoteBackend) Stats(ctx context.Context) (models.StatsReport, error) {
	return b.client.Stats(ctx, client.StatsOptions{})
}

// HabitStats picks one habit out of the aggregate stats report; the REST API
// has no per-habit stats endpoint.
func (b *RemoteBackend) HabitStats(ctx context.Context, id string) (models.HabitStats, error) {
	report, err := b.client.Stats(ctx, client.StatsOptions{})
	if err != nil {
		return models.HabitStats{}, err
	}
	for _, hs := range report.HabitsData {
		if hs.ID == id {
			return hs, nil
		}
	}
	return models.HabitStats{}, apperrors.NotFound("habit", id)
}

func (b *RemoteBackend) Calendar(ctx context.Context, id string, days int) ([]models.CalendarDay, error) {
	return b.client.Calendar(ctx, id, client.CalendarOptions{Days: days})
}

func (b *RemoteBackend) Insights(ctx context.Context) (models.Insights, error) {
	return b.client.Insights(ctx)
}

func (b *RemoteBackend) Today() string {
	return utils.TodayIn(b.now(), b.loc)
}

func (b *RemoteBackend) Location() *time.Location {
	return b.loc
}
