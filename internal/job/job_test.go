package job_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"panelsync/internal/job"
	"panelsync/internal/models"
	"panelsync/internal/notify"
)

type mockRunLog struct{ mock.Mock }

func (m *mockRunLog) Insert(ctx context.Context, record models.RunLogRecord) (models.StatusFlag, uuid.UUID, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(models.StatusFlag), args.Get(1).(uuid.UUID), args.Error(2)
}

func (m *mockRunLog) Update(ctx context.Context, record models.RunLogRecord) error {
	return m.Called(ctx, record).Error(0)
}

type mockHoliday struct{ mock.Mock }

func (m *mockHoliday) IsHoliday(ctx context.Context, refDate time.Time, includeWeekend int) (bool, error) {
	args := m.Called(ctx, refDate, includeWeekend)
	return args.Bool(0), args.Error(1)
}

type mockPrerequisites struct{ mock.Mock }

func (m *mockPrerequisites) Passed(ctx context.Context, refDate time.Time, deps []models.Dependency) (bool, error) {
	args := m.Called(ctx, refDate, deps)
	return args.Bool(0), args.Error(1)
}

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) FetchParticipants(ctx context.Context) ([]gjson.Result, error) {
	args := m.Called(ctx)
	participants, _ := args.Get(0).([]gjson.Result)
	return participants, args.Error(1)
}

type mockLoader struct{ mock.Mock }

func (m *mockLoader) Load(ctx context.Context, rows []models.ParticipantRow) (int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg notify.Message) error {
	return m.Called(ctx, msg).Error(0)
}

var (
	logID = uuid.MustParse("7fd70f84-2bc2-4721-abb5-f1bf87549d12")
	today = time.Date(2024, 3, 21, 6, 0, 0, 0, time.UTC)
)

type fixture struct {
	runLog   *mockRunLog
	holiday  *mockHoliday
	prereqs  *mockPrerequisites
	fetcher  *mockFetcher
	loader   *mockLoader
	mailer   *mockMailer
	calls    []string
	opts     job.Options
	services job.Services
}

func newFixture() *fixture {
	f := &fixture{
		runLog:  &mockRunLog{},
		holiday: &mockHoliday{},
		prereqs: &mockPrerequisites{},
		fetcher: &mockFetcher{},
		loader:  &mockLoader{},
		mailer:  &mockMailer{},
		opts: job.Options{
			Name:        "tWakoopaParticipants",
			LogTaskID:   -99,
			StartStatus: models.StatusFailed,
			StartMsg:    "task has started",
			To:          []string{"ops@example.com"},
			LogFile:     "log/tWakoopaParticipant_2024-03-21 06-00-00.txt",
		},
	}
	f.services = job.Services{
		RunLog:        f.runLog,
		Holiday:       f.holiday,
		Prerequisites: f.prereqs,
		Fetcher:       f.fetcher,
		Loader:        f.loader,
		Mailer:        f.mailer,
	}
	return f
}

func (f *fixture) track(name string) func(mock.Arguments) {
	return func(mock.Arguments) { f.calls = append(f.calls, name) }
}

func (f *fixture) expectInsert() {
	f.runLog.On("Insert", mock.Anything, mock.MatchedBy(func(r models.RunLogRecord) bool {
		return r.LogTaskID.Int64 == -99 && r.Status() == models.StatusFailed && r.LogMsg.String == "task has started"
	})).Return(models.StatusSuccess, logID, nil).Run(f.track("insert")).Once()
}

func (f *fixture) expectUpdate(status models.StatusFlag, msg string) {
	f.runLog.On("Update", mock.Anything, mock.MatchedBy(func(r models.RunLogRecord) bool {
		return r.LogID.Valid && r.LogID.UUID == logID && r.Status() == status && r.LogMsg.String == msg
	})).Return(nil).Run(f.track("update")).Once()
}

func (f *fixture) expectMail(subject string, err error) {
	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.Subject == subject && m.Attachment == f.opts.LogFile && len(m.To) == 1
	})).Return(err).Run(f.track("mail")).Once()
}

func (f *fixture) run() error {
	return f.runWithContext(context.Background())
}

func (f *fixture) runWithContext(ctx context.Context) error {
	return job.New(f.opts, f.services).WithClock(func() time.Time { return today }).Run(ctx)
}

// liveContext matches a context that has not been cancelled
var liveContext = mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })

func (f *fixture) assertExpectations(t *testing.T) {
	f.runLog.AssertExpectations(t)
	f.holiday.AssertExpectations(t)
	f.prereqs.AssertExpectations(t)
	f.fetcher.AssertExpectations(t)
	f.loader.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func participants() []gjson.Result {
	return gjson.Parse(`[{"id": "1001", "time_zone": "Asia/Singapore"}, {"id": "1002"}]`).Array()
}

func TestJob_Run(t *testing.T) {
	t.Run("successful import emails before updating the log", func(t *testing.T) {
		f := newFixture()
		f.expectInsert()
		f.fetcher.On("FetchParticipants", mock.Anything).Return(participants(), nil).Once()
		f.loader.On("Load", mock.Anything, mock.MatchedBy(func(rows []models.ParticipantRow) bool {
			return len(rows) == 2 && rows[0].ID == "1001" &&
				rows[0].ImportDate.Equal(time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC))
		})).Return(2, nil).Once()
		f.expectMail("[OK] tWakoopaParticipants Import - 21 March 2024", nil)
		f.expectUpdate(models.StatusSuccess, "task has completed")

		require.NoError(t, f.run())
		f.assertExpectations(t)
		assert.Equal(t, []string{"insert", "mail", "update"}, f.calls)
	})

	t.Run("insert failure stops the run", func(t *testing.T) {
		f := newFixture()
		f.runLog.On("Insert", mock.Anything, mock.Anything).
			Return(models.StatusFlag(0), uuid.Nil, errors.New("connection refused")).Once()

		err := f.run()
		assert.ErrorContains(t, err, "could not create run log entry")
		f.assertExpectations(t)
	})

	t.Run("fetch error is emailed and logged as failed", func(t *testing.T) {
		f := newFixture()
		f.expectInsert()
		fetchErr := errors.New("panel api returned unexpected status 401")
		f.fetcher.On("FetchParticipants", mock.Anything).Return(nil, fetchErr).Once()
		f.expectMail("[ERROR] tWakoopaParticipants Import - 21 March 2024", nil)
		f.expectUpdate(models.StatusFailed, "An error occurred:\npanel api returned unexpected status 401")

		err := f.run()
		assert.ErrorIs(t, err, fetchErr)
		f.assertExpectations(t)
		assert.Equal(t, []string{"insert", "mail", "update"}, f.calls)
	})

	t.Run("cancelled run is still reported", func(t *testing.T) {
		f := newFixture()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f.expectInsert()
		f.fetcher.On("FetchParticipants", mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return(nil, context.Canceled).Once()
		f.mailer.On("Send", liveContext, mock.MatchedBy(func(m notify.Message) bool {
			return m.Subject == "[ERROR] tWakoopaParticipants Import - 21 March 2024"
		})).Return(nil).Run(f.track("mail")).Once()
		f.runLog.On("Update", liveContext, mock.MatchedBy(func(r models.RunLogRecord) bool {
			return r.Status() == models.StatusFailed && r.LogMsg.String == "An error occurred:\ncontext canceled"
		})).Return(nil).Run(f.track("update")).Once()

		err := f.runWithContext(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		f.assertExpectations(t)
		assert.Equal(t, []string{"insert", "mail", "update"}, f.calls)
	})

	t.Run("holiday skips the run without email", func(t *testing.T) {
		f := newFixture()
		f.opts.SkipHolidays = true
		f.opts.IncludeWeekend = 1
		f.expectInsert()
		f.holiday.On("IsHoliday", mock.Anything, today, 1).Return(true, nil).Once()
		f.expectUpdate(models.StatusSuccess, "task skipped: 2024-03-21 is a holiday")

		require.NoError(t, f.run())
		f.assertExpectations(t)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("holiday gate error fails the run", func(t *testing.T) {
		f := newFixture()
		f.opts.SkipHolidays = true
		f.expectInsert()
		f.holiday.On("IsHoliday", mock.Anything, today, 0).Return(false, errors.New("unexpected result")).Once()
		f.expectMail("[ERROR] tWakoopaParticipants Import - 21 March 2024", nil)
		f.expectUpdate(models.StatusFailed, "An error occurred:\nunexpected result")

		assert.Error(t, f.run())
		f.assertExpectations(t)
	})

	t.Run("unmet prerequisites fail the run", func(t *testing.T) {
		f := newFixture()
		f.opts.Prerequisites = []models.Dependency{{Name: "Prelim PLD V3 SFTP Upload"}}
		f.expectInsert()
		f.prereqs.On("Passed", mock.Anything, today, f.opts.Prerequisites).Return(false, nil).Once()
		f.expectMail("[ERROR] tWakoopaParticipants Import - 21 March 2024", nil)
		f.expectUpdate(models.StatusFailed, "An error occurred:\nprerequisites not met")

		err := f.run()
		assert.ErrorIs(t, err, job.ErrPrerequisitesNotMet)
		f.assertExpectations(t)
		f.fetcher.AssertNotCalled(t, "FetchParticipants", mock.Anything)
	})

	t.Run("prerequisites pass and the import runs", func(t *testing.T) {
		f := newFixture()
		f.opts.Prerequisites = []models.Dependency{{Name: "Prelim PLD V3 SFTP Upload"}}
		f.expectInsert()
		f.prereqs.On("Passed", mock.Anything, today, f.opts.Prerequisites).Return(true, nil).Once()
		f.fetcher.On("FetchParticipants", mock.Anything).Return(participants(), nil).Once()
		f.loader.On("Load", mock.Anything, mock.Anything).Return(2, nil).Once()
		f.expectMail("[OK] tWakoopaParticipants Import - 21 March 2024", nil)
		f.expectUpdate(models.StatusSuccess, "task has completed")

		require.NoError(t, f.run())
		f.assertExpectations(t)
	})

	t.Run("mail and update errors are joined", func(t *testing.T) {
		f := newFixture()
		f.expectInsert()
		loadErr := errors.New("could not insert chunk 3")
		f.fetcher.On("FetchParticipants", mock.Anything).Return(participants(), nil).Once()
		f.loader.On("Load", mock.Anything, mock.Anything).Return(0, loadErr).Once()
		f.expectMail("[ERROR] tWakoopaParticipants Import - 21 March 2024", errors.New("relay down"))
		f.runLog.On("Update", mock.Anything, mock.Anything).Return(errors.New("log store down")).Once()

		err := f.run()
		require.Error(t, err)
		assert.ErrorIs(t, err, loadErr)
		assert.Contains(t, err.Error(), "relay down")
		assert.Contains(t, err.Error(), "log store down")
		f.assertExpectations(t)
	})
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "[ERROR] tWakoopaParticipants Import - 05 January 2024",
		job.Subject("[ERROR]", "tWakoopaParticipants", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
}
