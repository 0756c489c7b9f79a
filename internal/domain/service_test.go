package domain_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/frossokourou/exercise-tracker/internal/domain"
	"github.com/frossokourou/exercise-tracker/internal/events"
	"github.com/frossokourou/exercise-tracker/internal/persistence/memory"
)

type sequenceIDs struct{ n int }

func (s *sequenceIDs) NewID() string {
	s.n++
	return "id-" + strconv.Itoa(s.n)
}

type recordingPublisher struct {
	events []events.Event
	ctxs   []context.Context
	errs   []error
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.events = append(p.events, event)
	p.ctxs = append(p.ctxs, ctx)
	p.errs = append(p.errs, ctx.Err())
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var fixedNow = time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

func newService(opts ...domain.Option) (*domain.Service, *memory.Store) {
	store := memory.NewStore()
	opts = append([]domain.Option{domain.WithClock(func() time.Time { return fixedNow })}, opts...)
	return domain.NewService(store, &sequenceIDs{}, opts...), store
}

func mustRegister(t *testing.T, svc *domain.Service, username string) domain.UserSummary {
	t.Helper()
	reg, err := svc.Register(context.Background(), username)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	if reg.Taken {
		t.Fatalf("register %s: unexpectedly taken", username)
	}
	return reg.User
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	first := mustRegister(t, svc, "alice")
	if first.ID == "" {
		t.Fatalf("expected generated id")
	}

	second, err := svc.Register(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Taken {
		t.Fatalf("expected taken outcome")
	}
	if second.User.ID != "" {
		t.Fatalf("taken outcome must not expose the existing id")
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user got %d", len(users))
	}
}

func TestRegisterRequiresUsername(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Register(context.Background(), "   ")
	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation error got %v", err)
	}
	if verrs.First().Field != "username" {
		t.Fatalf("unexpected field %q", verrs.First().Field)
	}
}

func TestRegisterIssuesDistinctIDs(t *testing.T) {
	svc, _ := newService()
	a := mustRegister(t, svc, "alice")
	b := mustRegister(t, svc, "bob")
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids got %s twice", a.ID)
	}
}

func TestListUsersSortedByUsername(t *testing.T) {
	svc, _ := newService()
	for _, name := range []string{"carol", "alice", "bob"} {
		mustRegister(t, svc, name)
	}

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"alice", "bob", "carol"}
	for i, u := range users {
		if u.Username != want[i] {
			t.Fatalf("position %d: expected %s got %s", i, want[i], u.Username)
		}
	}
}

func TestLogExerciseDefaultsDateToNow(t *testing.T) {
	svc, _ := newService()
	user := mustRegister(t, svc, "alice")

	logged, err := svc.LogExercise(context.Background(), domain.LogExerciseInput{
		UserID:      user.ID,
		Description: "run",
		Duration:    "30",
	})
	if err != nil {
		t.Fatalf("log exercise: %v", err)
	}
	if !logged.Exercise.Date.Equal(fixedNow) {
		t.Fatalf("expected date %v got %v", fixedNow, logged.Exercise.Date)
	}
	if logged.User.Username != "alice" || logged.User.ID != user.ID {
		t.Fatalf("unexpected user %+v", logged.User)
	}
}

func TestLogExerciseValidationOrder(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	user := mustRegister(t, svc, "alice")

	_, err := svc.LogExercise(ctx, domain.LogExerciseInput{UserID: "missing"})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found before field checks got %v", err)
	}

	cases := []struct {
		input domain.LogExerciseInput
		want  string
	}{
		{domain.LogExerciseInput{UserID: user.ID}, "exercise description missing"},
		{domain.LogExerciseInput{UserID: user.ID, Description: "run"}, "exercise duration missing"},
		{domain.LogExerciseInput{UserID: user.ID, Description: "run", Duration: "-5"}, "exercise duration must be a positive number"},
		{domain.LogExerciseInput{UserID: user.ID, Description: "run", Duration: "NaN"}, "exercise duration must be a positive number"},
		{domain.LogExerciseInput{UserID: user.ID, Description: "run", Duration: "5", Date: "someday"}, "exercise date is not a valid date"},
	}
	for _, tc := range cases {
		_, err := svc.LogExercise(ctx, tc.input)
		if err == nil || err.Error() != tc.want {
			t.Fatalf("input %+v: expected %q got %v", tc.input, tc.want, err)
		}
	}

	stored, err := store.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(stored.Exercises) != 0 {
		t.Fatalf("rejected calls must not mutate the log, got %d entries", len(stored.Exercises))
	}
}

func TestUserLogAndQueryLog(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	user := mustRegister(t, svc, "alice")

	for _, date := range []string{"2020-01-01", "2020-02-01", "2020-03-01", "2020-04-01"} {
		if _, err := svc.LogExercise(ctx, domain.LogExerciseInput{
			UserID: user.ID, Description: "run", Duration: "30", Date: date,
		}); err != nil {
			t.Fatalf("log %s: %v", date, err)
		}
	}

	full, err := svc.UserLog(ctx, user.ID)
	if err != nil {
		t.Fatalf("user log: %v", err)
	}
	if full.Count() != 4 {
		t.Fatalf("expected 4 entries got %d", full.Count())
	}

	filtered, err := svc.QueryLog(ctx, domain.NewLogQuery(user.ID, "2020-01-15", "2020-03-15", ""))
	if err != nil {
		t.Fatalf("query log: %v", err)
	}
	if filtered.Count() != 2 || filtered.Count() != len(filtered.Exercises) {
		t.Fatalf("expected 2 entries got %d", filtered.Count())
	}
	if filtered.User.ID != user.ID {
		t.Fatalf("unexpected user %+v", filtered.User)
	}
}

func TestLogsForUnknownUser(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.UserLog(ctx, "nope"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
	if _, err := svc.QueryLog(ctx, domain.NewLogQuery("", "", "", "")); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found for empty id got %v", err)
	}
}

func TestNewUserHasEmptyLog(t *testing.T) {
	svc, _ := newService()
	user := mustRegister(t, svc, "alice")

	log, err := svc.UserLog(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("user log: %v", err)
	}
	if log.Exercises == nil || log.Count() != 0 {
		t.Fatalf("expected empty non-nil log got %#v", log.Exercises)
	}
}

func TestQueryLogRecentMode(t *testing.T) {
	svc, _ := newService(domain.WithLimitMode(domain.LimitRecent))
	ctx := context.Background()
	user := mustRegister(t, svc, "alice")

	for _, date := range []string{"2020-03-01", "2020-01-01", "2020-04-01", "2020-02-01"} {
		if _, err := svc.LogExercise(ctx, domain.LogExerciseInput{
			UserID: user.ID, Description: "run", Duration: "30", Date: date,
		}); err != nil {
			t.Fatalf("log %s: %v", date, err)
		}
	}

	log, err := svc.QueryLog(ctx, domain.NewLogQuery(user.ID, "", "", "2"))
	if err != nil {
		t.Fatalf("query log: %v", err)
	}
	if log.Count() != 2 {
		t.Fatalf("expected 2 entries got %d", log.Count())
	}
	if got := log.Exercises[0].Date.Format("2006-01-02"); got != "2020-04-01" {
		t.Fatalf("expected most recent first got %s", got)
	}
}

func TestPublisherFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newService(domain.WithPublisher(pub))
	ctx := context.Background()

	user := mustRegister(t, svc, "alice")
	if _, err := svc.LogExercise(ctx, domain.LogExerciseInput{UserID: user.ID, Description: "run", Duration: "1.5"}); err != nil {
		t.Fatalf("log exercise: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events got %d", len(pub.events))
	}
	if pub.events[0].Type() != events.TypeUserRegistered || pub.events[1].Type() != events.TypeExerciseLogged {
		t.Fatalf("unexpected event types %s, %s", pub.events[0].Type(), pub.events[1].Type())
	}
	logged, ok := pub.events[1].(events.ExerciseLogged)
	if !ok || logged.Duration != 1.5 || logged.UserID != user.ID {
		t.Fatalf("unexpected payload %#v", pub.events[1])
	}
}

// staleLookupStore misses every username lookup, as a store does when a
// concurrent registration commits between the lookup and the insert.
type staleLookupStore struct {
	*memory.Store
}

func (staleLookupStore) FindByUsername(context.Context, string) (*domain.User, error) {
	return nil, nil
}

func TestRegisterTreatsRejectedInsertAsTaken(t *testing.T) {
	store := staleLookupStore{Store: memory.NewStore()}
	pub := &recordingPublisher{}
	svc := domain.NewService(store, &sequenceIDs{}, domain.WithPublisher(pub))
	ctx := context.Background()

	mustRegister(t, svc, "alice")

	reg, err := svc.Register(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reg.Taken || reg.User.Username != "alice" || reg.User.ID != "" {
		t.Fatalf("expected taken outcome got %+v", reg)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user got %d", len(users))
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected only the first registration to publish, got %d events", len(pub.events))
	}
}

func TestPublishOutlivesRequestContext(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(domain.WithPublisher(pub), domain.WithPublishTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Register(ctx, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(pub.ctxs) != 1 {
		t.Fatalf("expected 1 publish got %d", len(pub.ctxs))
	}
	if pub.errs[0] != nil {
		t.Fatalf("publish saw cancelled request context: %v", pub.errs[0])
	}
	deadline, ok := pub.ctxs[0].Deadline()
	if !ok {
		t.Fatalf("publish context has no deadline")
	}
	if remaining := time.Until(deadline); remaining > time.Second {
		t.Fatalf("publish deadline too far out: %s", remaining)
	}
}

func TestLogExerciseStoresMillisecondDates(t *testing.T) {
	now := time.Date(2024, time.March, 10, 8, 0, 0, 123456789, time.UTC)
	svc := domain.NewService(memory.NewStore(), &sequenceIDs{}, domain.WithClock(func() time.Time { return now }))
	ctx := context.Background()
	user := mustRegister(t, svc, "alice")

	want := now.Truncate(time.Millisecond)
	for _, date := range []string{"", "2024-03-09T07:00:00.987654321Z"} {
		logged, err := svc.LogExercise(ctx, domain.LogExerciseInput{UserID: user.ID, Description: "run", Duration: "30", Date: date})
		if err != nil {
			t.Fatalf("log exercise: %v", err)
		}
		if logged.Exercise.Date.Nanosecond()%int(time.Millisecond) != 0 {
			t.Fatalf("date %q kept sub-millisecond precision: %v", date, logged.Exercise.Date)
		}
		if date == "" && !logged.Exercise.Date.Equal(want) {
			t.Fatalf("expected %v got %v", want, logged.Exercise.Date)
		}
	}

	log, err := svc.UserLog(ctx, user.ID)
	if err != nil {
		t.Fatalf("user log: %v", err)
	}
	if !log.Exercises[0].Date.Equal(want) {
		t.Fatalf("stored date %v differs from echoed %v", log.Exercises[0].Date, want)
	}
}
