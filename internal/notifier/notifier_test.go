package notifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/metrics"
	"github.com/d-kovalchuk/weather-notify-api/internal/models"
	"github.com/d-kovalchuk/weather-notify-api/internal/notifier"
	"github.com/d-kovalchuk/weather-notify-api/internal/weathercache"
)

type fakeRepo struct {
	mu    sync.Mutex
	subs  []models.Subscription
	err   error
	calls int
	block chan struct{}
}

func (r *fakeRepo) GetConfirmedByFrequency(_ context.Context, _ string) ([]models.Subscription, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return r.subs, r.err
}

func (r *fakeRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// fakeProvider resolves per-city canned results and counts upstream calls.
type fakeProvider struct {
	mu      sync.Mutex
	results map[string]models.WeatherData
	errs    map[string]error
	calls   map[string]int
}

func (p *fakeProvider) GetByCity(_ context.Context, city string) (models.WeatherData, error) {
	p.mu.Lock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[city]++
	p.mu.Unlock()
	if err, ok := p.errs[city]; ok {
		return models.WeatherData{}, err
	}
	return p.results[city], nil
}

func (p *fakeProvider) callsFor(city string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[city]
}

type fakeEmail struct {
	mu       sync.Mutex
	sent     []string
	failFor  map[string]error
	attempts int
}

func (e *fakeEmail) SendWeather(_ context.Context, sub models.Subscription, _ models.WeatherData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attempts++
	if err, ok := e.failFor[sub.Email]; ok {
		return err
	}
	e.sent = append(e.sent, sub.Email)
	return nil
}

func (e *fakeEmail) sentTo() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.sent...)
}

func newNotifier(repo *fakeRepo, provider *fakeProvider, email *fakeEmail) *notifier.Notifier {
	cache := weathercache.New(provider, time.Hour, time.Second, zap.NewNop(), metrics.NewMetrics("notifier_cache"))
	return notifier.New(
		repo, cache, email, zap.NewNop(),
		"0 * * * *", "0 8 * * *",
		30*time.Second,
		metrics.NewMetrics("notifier_test"),
	)
}

func TestRunCycle_SharedCityAndIsolatedFailure(t *testing.T) {
	repo := &fakeRepo{subs: []models.Subscription{
		{ID: 1, Email: "a@x.com", City: "Paris", Frequency: "daily", Confirmed: true},
		{ID: 2, Email: "b@x.com", City: "Paris", Frequency: "daily", Confirmed: true},
		{ID: 3, Email: "c@x.com", City: "Berlin", Frequency: "daily", Confirmed: true},
	}}
	provider := &fakeProvider{
		results: map[string]models.WeatherData{
			"Paris": {City: "Paris", Temperature: 18.0, Condition: "Sunny"},
		},
		errs: map[string]error{
			"Berlin": errors.New("service unavailable"),
		},
	}
	email := &fakeEmail{}

	n := newNotifier(repo, provider, email)
	n.RunCycle(context.Background(), models.FreqDaily)

	sent := email.sentTo()
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, sent)
	assert.Equal(t, 1, provider.callsFor("Paris"))
	assert.Equal(t, 1, provider.callsFor("Berlin"))
}

func TestRunCycle_TransportFailureIsolated(t *testing.T) {
	repo := &fakeRepo{subs: []models.Subscription{
		{ID: 1, Email: "a@x.com", City: "Kyiv", Frequency: "hourly", Confirmed: true},
		{ID: 2, Email: "b@x.com", City: "Kyiv", Frequency: "hourly", Confirmed: true},
		{ID: 3, Email: "c@x.com", City: "Kyiv", Frequency: "hourly", Confirmed: true},
	}}
	provider := &fakeProvider{
		results: map[string]models.WeatherData{"Kyiv": {City: "Kyiv", Temperature: 3.0}},
	}
	email := &fakeEmail{failFor: map[string]error{"b@x.com": errors.New("smtp down")}}

	n := newNotifier(repo, provider, email)
	n.RunCycle(context.Background(), models.FreqHourly)

	assert.ElementsMatch(t, []string{"a@x.com", "c@x.com"}, email.sentTo())
	assert.Equal(t, 3, email.attempts)
}

func TestRunCycle_BatchLoadFailureAbortsCycle(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db gone")}
	provider := &fakeProvider{}
	email := &fakeEmail{}

	n := newNotifier(repo, provider, email)
	n.RunCycle(context.Background(), models.FreqDaily)

	assert.Empty(t, email.sentTo())
	assert.Equal(t, 0, provider.callsFor("Paris"))
}

func TestRunCycle_SkipsWhileTierStillRunning(t *testing.T) {
	repo := &fakeRepo{block: make(chan struct{})}
	provider := &fakeProvider{}
	email := &fakeEmail{}

	n := newNotifier(repo, provider, email)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.RunCycle(context.Background(), models.FreqHourly)
	}()

	// wait until the first cycle is inside the batch load
	require.Eventually(t, func() bool {
		return repo.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	n.RunCycle(context.Background(), models.FreqHourly)
	assert.Equal(t, 1, repo.callCount())

	close(repo.block)
	wg.Wait()
}

func TestRunCycle_TiersRunIndependently(t *testing.T) {
	repo := &fakeRepo{block: make(chan struct{})}
	provider := &fakeProvider{}
	email := &fakeEmail{}

	n := newNotifier(repo, provider, email)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.RunCycle(context.Background(), models.FreqDaily)
	}()

	require.Eventually(t, func() bool {
		return repo.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// hourly is not blocked by the in-flight daily cycle
	done := make(chan struct{})
	go func() {
		n.RunCycle(context.Background(), models.FreqHourly)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return repo.callCount() == 2
	}, time.Second, 5*time.Millisecond)

	close(repo.block)
	wg.Wait()
	<-done
}

func TestSendOne_Success(t *testing.T) {
	repo := &fakeRepo{}
	provider := &fakeProvider{
		results: map[string]models.WeatherData{"Kyiv": {City: "Kyiv", Temperature: 5.0, Condition: "Snow"}},
	}
	email := &fakeEmail{}

	n := newNotifier(repo, provider, email)
	err := n.SendOne(context.Background(), models.Subscription{
		ID: 1, Email: "user@kyiv.ua", City: "Kyiv", Frequency: "hourly",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"user@kyiv.ua"}, email.sentTo())
}

func TestSendOne_WeatherFetchError(t *testing.T) {
	repo := &fakeRepo{}
	provider := &fakeProvider{errs: map[string]error{"Lviv": errors.New("api error")}}
	email := &fakeEmail{}

	n := newNotifier(repo, provider, email)
	err := n.SendOne(context.Background(), models.Subscription{ID: 2, Email: "x@x.com", City: "Lviv"})

	assert.Error(t, err)
	assert.Empty(t, email.sentTo())
}
