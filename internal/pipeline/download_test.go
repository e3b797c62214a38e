package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi11/podcaster/internal/config"
	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/models"
	"github.com/pi11/podcaster/internal/test"
	"github.com/pi11/podcaster/internal/ytdlp"
)

func downloadConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		MediaDir:   t.TempDir(),
		Retries:    2,
		RetryDelay: time.Millisecond,
	}
}

func expectClaim(mock sqlmock.Sqlmock, id int, status string, granted bool) {
	var rows int64
	if granted {
		rows = 1
	}
	mock.ExpectExec("status NOT IN").
		WithArgs(id, status, db.StatusDownloading, db.StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, rows))
}

func expectSource(mock sqlmock.Sqlmock, src models.Source) {
	mock.ExpectQuery(`SELECT \* FROM sources WHERE id = \$1`).
		WithArgs(src.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "min_duration", "max_duration"}).
			AddRow(src.ID, src.Name, src.MinDuration, src.MaxDuration))
}

// writingAudioFn drops a real file where yt-dlp would, like the binary does.
func writingAudioFn(t *testing.T, duration float64) func(id, dir string) (string, ytdlp.Video, error) {
	t.Helper()
	return func(id, dir string) (string, ytdlp.Video, error) {
		require.NoError(t, os.MkdirAll(dir, 0o755))
		path := filepath.Join(dir, id+".mp3")
		require.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0644))
		return path, ytdlp.Video{ID: id, Duration: duration}, nil
	}
}

func TestDownloadEpisodeHappyPath(t *testing.T) {
	_, mock := test.NewMockDB(t)

	provider := &fakeProvider{audioFn: writingAudioFn(t, 1200)}
	p := &Pipeline{Cfg: downloadConfig(t), Provider: provider}

	expectClaim(mock, 9, db.StatusDownloading, true)
	expectSource(mock, models.Source{ID: 1, Name: "Jazz Club"})
	mock.ExpectExec("SET is_downloaded = true").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rep := NewReport()
	p.DownloadEpisode(context.Background(), models.Episode{ID: 9, SourceID: 1, YoutubeID: "abc123"}, rep)

	assert.Len(t, rep.Downloaded, 1)
	assert.Empty(t, rep.Failures)
	assert.Equal(t, 1, provider.audioCalls)

	audio := filepath.Join(p.Cfg.MediaDir, "1_Jazz_Club", "abc123.mp3")
	_, err := os.Stat(audio)
	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadEpisodeSkipsWhenClaimed(t *testing.T) {
	_, mock := test.NewMockDB(t)

	provider := &fakeProvider{}
	p := &Pipeline{Cfg: downloadConfig(t), Provider: provider}

	expectClaim(mock, 9, db.StatusDownloading, false)

	rep := NewReport()
	p.DownloadEpisode(context.Background(), models.Episode{ID: 9, SourceID: 1, YoutubeID: "abc123"}, rep)

	assert.Empty(t, rep.Downloaded)
	assert.Empty(t, rep.Failures)
	assert.Zero(t, provider.audioCalls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadEpisodeRetriesThenReleases(t *testing.T) {
	_, mock := test.NewMockDB(t)

	provider := &fakeProvider{
		audioFn: func(_, _ string) (string, ytdlp.Video, error) {
			return "", ytdlp.Video{}, fmt.Errorf("network blip")
		},
	}
	p := &Pipeline{Cfg: downloadConfig(t), Provider: provider}

	expectClaim(mock, 9, db.StatusDownloading, true)
	expectSource(mock, models.Source{ID: 1, Name: "Jazz Club"})
	mock.ExpectExec("UPDATE episodes SET status").
		WithArgs(9, db.StatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rep := NewReport()
	p.DownloadEpisode(context.Background(), models.Episode{ID: 9, SourceID: 1, YoutubeID: "abc123"}, rep)

	// Retries + the initial attempt, then the episode stays eligible for a
	// later pass.
	assert.Equal(t, 3, provider.audioCalls)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, FailureTransient, rep.Failures[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadEpisodeDeactivatesOnActualDuration(t *testing.T) {
	_, mock := test.NewMockDB(t)

	provider := &fakeProvider{audioFn: writingAudioFn(t, 30)}
	p := &Pipeline{Cfg: downloadConfig(t), Provider: provider}

	expectClaim(mock, 9, db.StatusDownloading, true)
	expectSource(mock, models.Source{ID: 1, Name: "Jazz Club", MinDuration: 60})
	mock.ExpectExec("UPDATE episodes SET is_active = false").
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE episodes SET status").
		WithArgs(9, db.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rep := NewReport()
	p.DownloadEpisode(context.Background(), models.Episode{ID: 9, SourceID: 1, YoutubeID: "abc123"}, rep)

	assert.Empty(t, rep.Downloaded)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, FailureValidation, rep.Failures[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadEpisodeThumbnailIsBestEffort(t *testing.T) {
	_, mock := test.NewMockDB(t)

	thumbURL := "http://t/abc123.jpg"
	provider := &fakeProvider{
		audioFn: writingAudioFn(t, 1200),
		thumbFn: func(_, _ string) error { return fmt.Errorf("cdn timeout") },
	}
	p := &Pipeline{Cfg: downloadConfig(t), Provider: provider}

	expectClaim(mock, 9, db.StatusDownloading, true)
	expectSource(mock, models.Source{ID: 1, Name: "Jazz Club"})
	mock.ExpectExec("SET is_downloaded = true").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rep := NewReport()
	p.DownloadEpisode(context.Background(), models.Episode{
		ID: 9, SourceID: 1, YoutubeID: "abc123", ThumbnailURL: &thumbURL,
	}, rep)

	assert.Len(t, rep.Downloaded, 1)
	assert.Empty(t, rep.Failures)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadEpisodeReleasesWhenMarkFails(t *testing.T) {
	_, mock := test.NewMockDB(t)

	provider := &fakeProvider{audioFn: writingAudioFn(t, 1200)}
	p := &Pipeline{Cfg: downloadConfig(t), Provider: provider}

	expectClaim(mock, 9, db.StatusDownloading, true)
	expectSource(mock, models.Source{ID: 1, Name: "Jazz Club"})
	mock.ExpectExec("SET is_downloaded = true").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectExec("UPDATE episodes SET status").
		WithArgs(9, db.StatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rep := NewReport()
	p.DownloadEpisode(context.Background(), models.Episode{ID: 9, SourceID: 1, YoutubeID: "abc123"}, rep)

	// The claim must not outlive the attempt, or the episode would be
	// skipped by every later pass.
	assert.Empty(t, rep.Downloaded)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, FailureIntegrity, rep.Failures[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithRetriesStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetries(ctx, 5, time.Minute, func() error {
		calls++
		return fmt.Errorf("always failing")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
