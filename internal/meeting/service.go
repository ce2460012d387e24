package meeting

import (
	"context"
	"time"

	"mediguru/internal/apperr"
	"mediguru/internal/validate"
)

// Store is the persistence the meeting registry needs.
type Store interface {
	SlotTaken(ctx context.Context, date, clock string) (bool, error)
	Insert(ctx context.Context, m NewMeeting) (int64, error)
	Get(ctx context.Context, id int64) (*Meeting, error)
	List(ctx context.Context) ([]Meeting, error)
}

// Service schedules and lists meetings.
type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewService creates a service. Calendar days are evaluated in loc.
func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// Create validates fields, rejects an occupied slot and stores the meeting
// attributed to createdBy.
func (s *Service) Create(ctx context.Context, fields map[string]any, createdBy int64) (*Meeting, error) {
	if err := validate.Required(fields, "name", "date", "time", "topic", "hosters"); err != nil {
		return nil, err
	}
	in := NewMeeting{
		Name:      validate.Text(fields["name"]),
		Date:      validate.Text(fields["date"]),
		Time:      validate.Text(fields["time"]),
		Topic:     validate.Text(fields["topic"]),
		Hosters:   validate.Text(fields["hosters"]),
		CreatedBy: createdBy,
	}
	if !validate.MinLength(in.Name, 3) {
		return nil, apperr.Validation("Meeting name must be at least 3 characters long")
	}
	if !validate.MinLength(in.Topic, 10) {
		return nil, apperr.Validation("Meeting topic must be at least 10 characters long")
	}
	date, err := validate.Date(in.Date)
	if err != nil {
		return nil, err
	}
	if err := validate.NotPast(date, s.today()); err != nil {
		return nil, err
	}
	if _, err := validate.Clock(in.Time); err != nil {
		return nil, err
	}

	taken, err := s.store.SlotTaken(ctx, in.Date, in.Time)
	if err != nil {
		return nil, apperr.Storage("Database error", err)
	}
	if taken {
		return nil, apperr.Conflict("A meeting is already scheduled at this date and time")
	}

	id, err := s.store.Insert(ctx, in)
	if err != nil {
		return nil, apperr.Storage("Database error", err)
	}
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.Storage("Database error", err)
	}
	if m == nil {
		return nil, apperr.NotFound("Meeting not found after insert")
	}
	// New meetings are always reported as upcoming, even when scheduled for today.
	m.Status = StatusUpcoming
	return m, nil
}

// List returns every meeting with its status derived from today's date.
func (s *Service) List(ctx context.Context) ([]Meeting, error) {
	meetings, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Storage("Database error", err)
	}
	today := s.today()
	for i := range meetings {
		meetings[i].Status = StatusOn(meetings[i].Date, today)
	}
	return meetings, nil
}
