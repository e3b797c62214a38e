package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi11/podcaster/internal/config"
	"github.com/pi11/podcaster/internal/models"
	"github.com/pi11/podcaster/internal/test"
)

type fakeClassifier struct {
	suggestions []string
	err         error
	calls       int
}

func (f *fakeClassifier) Suggest(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.suggestions, f.err
}

func categorySnapshot() *Snapshot {
	return &Snapshot{
		Categories: []models.Category{
			{ID: 1, Name: "music", Keywords: pq.StringArray{"jazz", "blues"}},
			{ID: 2, Name: "history", Keywords: pq.StringArray{"medieval"}},
			{ID: 3, Name: "science", Keywords: pq.StringArray{"physics"}},
		},
		BannedWords: []string{"casino"},
	}
}

func TestCategoryIDsKeywordsFirstThenClassifier(t *testing.T) {
	snap := categorySnapshot()
	cl := &fakeClassifier{suggestions: []string{"science", "music", "unknown"}}

	ids := CategoryIDs(context.Background(), snap, cl, "A night of jazz standards")

	// Keyword match (music) leads; the classifier adds science, repeats and
	// unknown names are dropped.
	assert.Equal(t, []int{1, 3}, ids)
}

func TestCategoryIDsClassifierFailureDegrades(t *testing.T) {
	snap := categorySnapshot()
	cl := &fakeClassifier{err: fmt.Errorf("service unavailable")}

	ids := CategoryIDs(context.Background(), snap, cl, "medieval siege warfare")

	assert.Equal(t, []int{2}, ids)
}

func TestCategoryIDsCaseInsensitiveSuggestions(t *testing.T) {
	snap := categorySnapshot()
	cl := &fakeClassifier{suggestions: []string{"MUSIC"}}

	ids := CategoryIDs(context.Background(), snap, cl, "nothing matches keywords")

	assert.Equal(t, []int{1}, ids)
}

func TestCategorizeEpisodeAssignsCategories(t *testing.T) {
	_, mock := test.NewMockDB(t)
	snap := categorySnapshot()
	cl := &fakeClassifier{}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM episode_categories").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO episode_categories").
		WithArgs(5, 1, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE episodes SET categorized_at").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := &Pipeline{Cfg: &config.Config{}, Classifier: cl}
	rep := NewReport()
	p.CategorizeEpisode(context.Background(), snap, models.Episode{
		ID: 5, YoutubeID: "abc123", Name: "Jazz at midnight",
	}, rep)

	assert.Len(t, rep.Categorized, 1)
	assert.Empty(t, rep.Failures)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategorizeEpisodeBannedWordDeactivates(t *testing.T) {
	_, mock := test.NewMockDB(t)
	snap := categorySnapshot()
	cl := &fakeClassifier{}

	mock.ExpectExec("UPDATE episodes SET is_active = false").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &Pipeline{Cfg: &config.Config{}, Classifier: cl}
	rep := NewReport()
	p.CategorizeEpisode(context.Background(), snap, models.Episode{
		ID: 5, YoutubeID: "abc123", Name: "Best casino jazz night",
	}, rep)

	assert.Empty(t, rep.Categorized)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, FailureValidation, rep.Failures[0].Kind)
	assert.Zero(t, cl.calls, "banned episodes are never classified")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifierRelatedness(t *testing.T) {
	snap := categorySnapshot()

	t.Run("keyword match is related", func(t *testing.T) {
		p := &Pipeline{Classifier: &fakeClassifier{}}
		ok, err := p.classifierRelatedness(context.Background(), snap, models.Source{}, "Blues evening", "")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("classifier naming a known category is related", func(t *testing.T) {
		p := &Pipeline{Classifier: &fakeClassifier{suggestions: []string{"history"}}}
		ok, err := p.classifierRelatedness(context.Background(), snap, models.Source{}, "Castles of Wales", "")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("classifier failure is not related", func(t *testing.T) {
		p := &Pipeline{Classifier: &fakeClassifier{err: fmt.Errorf("down")}}
		ok, err := p.classifierRelatedness(context.Background(), snap, models.Source{}, "Castles of Wales", "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no signal is not related", func(t *testing.T) {
		p := &Pipeline{Classifier: &fakeClassifier{suggestions: []string{"unknown"}}}
		ok, err := p.classifierRelatedness(context.Background(), snap, models.Source{}, "Cooking pasta", "")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
