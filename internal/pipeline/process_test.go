package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi11/podcaster/internal/config"
	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/models"
	"github.com/pi11/podcaster/internal/test"
)

// fakeTranscoder writes a file of a configured size per bitrate, or fails.
type fakeTranscoder struct {
	sizes map[int]int64
	fail  map[int]bool
	calls []int
}

func (f *fakeTranscoder) Encode(_ context.Context, _, output string, bitrateKbps int) error {
	f.calls = append(f.calls, bitrateKbps)
	if f.fail[bitrateKbps] {
		return fmt.Errorf("encoder exploded at %dk", bitrateKbps)
	}
	return os.WriteFile(output, make([]byte, f.sizes[bitrateKbps]), 0644)
}

func writeAudioFixture(t *testing.T, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abc123.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func compressPipeline(tr *fakeTranscoder) *Pipeline {
	return &Pipeline{
		Cfg: &config.Config{
			MaxAudioSize:  100,
			BitrateLadder: []int{96, 64},
		},
		Transcoder: tr,
	}
}

func TestCompressSkipsFilesUnderCeiling(t *testing.T) {
	tr := &fakeTranscoder{}
	p := compressPipeline(tr)
	file := writeAudioFixture(t, 80)

	path, size, oversized, err := p.compress(context.Background(), models.Episode{File: &file, Filesize: 80})

	require.NoError(t, err)
	assert.Equal(t, file, path)
	assert.Equal(t, int64(80), size)
	assert.False(t, oversized)
	assert.Empty(t, tr.calls)
}

func TestCompressStopsAtFirstFittingRung(t *testing.T) {
	tr := &fakeTranscoder{sizes: map[int]int64{96: 90, 64: 50}}
	p := compressPipeline(tr)
	file := writeAudioFixture(t, 200)

	path, size, oversized, err := p.compress(context.Background(), models.Episode{File: &file, Filesize: 200})

	require.NoError(t, err)
	assert.Equal(t, file+"-conv.mp3", path)
	assert.Equal(t, int64(90), size)
	assert.False(t, oversized)
	assert.Equal(t, []int{96}, tr.calls)
}

func TestCompressWalksLadderAndFlagsOversized(t *testing.T) {
	tr := &fakeTranscoder{sizes: map[int]int64{96: 180, 64: 150}}
	p := compressPipeline(tr)
	file := writeAudioFixture(t, 200)

	path, size, oversized, err := p.compress(context.Background(), models.Episode{File: &file, Filesize: 200})

	require.NoError(t, err)
	assert.Equal(t, []int{96, 64}, tr.calls)
	assert.Equal(t, int64(150), size)
	assert.True(t, oversized)

	// The final rung's artifact is kept on disk.
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(150), fi.Size())
}

func TestCompressEncodeFailureLeavesNoPartials(t *testing.T) {
	tr := &fakeTranscoder{fail: map[int]bool{96: true}}
	p := compressPipeline(tr)
	file := writeAudioFixture(t, 200)

	_, _, _, err := p.compress(context.Background(), models.Episode{File: &file, Filesize: 200})

	require.Error(t, err)
	entries, readErr := os.ReadDir(filepath.Dir(file))
	require.NoError(t, readErr)
	assert.Len(t, entries, 1, "only the original download should remain")
}

func TestCompressRejectsEmptyEncoderOutput(t *testing.T) {
	tr := &fakeTranscoder{sizes: map[int]int64{96: 0}}
	p := compressPipeline(tr)
	file := writeAudioFixture(t, 200)

	_, _, _, err := p.compress(context.Background(), models.Episode{File: &file, Filesize: 200})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty output")
}

func TestProcessEpisodeMissingFileReleases(t *testing.T) {
	_, mock := test.NewMockDB(t)

	mock.ExpectExec("status NOT IN").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE episodes SET status").
		WithArgs(3, db.StatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := compressPipeline(&fakeTranscoder{})
	rep := NewReport()
	p.ProcessEpisode(context.Background(), &Snapshot{}, models.Episode{ID: 3, YoutubeID: "abc123"}, rep)

	assert.Empty(t, rep.Processed)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, FailureIntegrity, rep.Failures[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEpisodeReleasesWhenMarkFails(t *testing.T) {
	_, mock := test.NewMockDB(t)
	file := writeAudioFixture(t, 80)

	mock.ExpectExec("status NOT IN").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM sources WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Jazz Club"))
	mock.ExpectExec("SET is_processed = true").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectExec("UPDATE episodes SET status").
		WithArgs(3, db.StatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := compressPipeline(&fakeTranscoder{})
	rep := NewReport()
	p.ProcessEpisode(context.Background(), &Snapshot{}, models.Episode{
		ID: 3, SourceID: 1, YoutubeID: "abc123", File: &file, Filesize: 80,
	}, rep)

	assert.Empty(t, rep.Processed)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, FailureIntegrity, rep.Failures[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbedMetadataRoundTrip(t *testing.T) {
	file := writeAudioFixture(t, 256)
	thumb := filepath.Join(filepath.Dir(file), "abc123-thumb.jpg")
	require.NoError(t, os.WriteFile(thumb, []byte{0xff, 0xd8, 0xff}, 0644))

	ep := models.Episode{
		Name:        "Amazing Jazz Live Session",
		Description: "An hour of improvised music.",
		File:        &file,
		Thumbnail:   &thumb,
	}
	src := models.Source{Name: "Jazz Club"}

	require.NoError(t, embedMetadata(file, ep, src))

	tag, err := id3v2.Open(file, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()
	assert.Equal(t, "Amazing Jazz Live Session", tag.Title())
	assert.Equal(t, "Jazz Club", tag.Artist())
	assert.Equal(t, "Jazz Club", tag.Album())
}
