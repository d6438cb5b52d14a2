package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rera-cli/internal/model"
)

func page(district string) []byte {
	return []byte(fmt.Sprintf(`<h2>Project Details</h2><table><tr><td>District</td><td>%s</td></tr></table>`, district))
}

func TestBatch_OrderAndSummary(t *testing.T) {
	p := newProcessor(t)
	docs := []model.SourceDocument{
		{Name: "a", URL: "https://x/a", Body: page("Raipur")},
		{Name: "empty", Body: []byte("  ")},
		{Name: "b", URL: "https://x/b", Body: page("Durg")},
		fixture(t),
	}

	results, summary, err := p.Batch(context.Background(), docs, BatchOptions{Concurrency: 3, Timeout: 5 * time.Second})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "a", results[0].Document)
	assert.Nil(t, results[1])
	assert.Equal(t, "b", results[2].Document)
	assert.Equal(t, "PCGRERA250518000123", results[3].Record.ProjectKey)

	assert.Equal(t, 4, summary.Documents)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.TimedOut)

	want := model.StatusCounts{}
	for _, r := range results {
		if r != nil {
			want.Merge(r.Report.Counts)
		}
	}
	assert.Equal(t, want, summary.Counts)
}

func TestBatch_SinkReceivesResults(t *testing.T) {
	p := newProcessor(t)
	sink := new(mockSink)
	sink.On("SaveResult", mock.Anything, mock.MatchedBy(func(r *model.ProcessResult) bool {
		return r.Document == "a"
	})).Return(nil).Once()
	sink.On("SaveResult", mock.Anything, mock.MatchedBy(func(r *model.ProcessResult) bool {
		return r.Document == "b"
	})).Return(errors.New("disk full")).Once()

	docs := []model.SourceDocument{
		{Name: "a", Body: page("Raipur")},
		{Name: "b", Body: page("Durg")},
	}
	_, summary, err := p.Batch(context.Background(), docs, BatchOptions{Concurrency: 2, Sink: sink})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.SaveFailed)
	sink.AssertExpectations(t)
}

func TestBatch_Timeout(t *testing.T) {
	p := newProcessor(t)
	docs := []model.SourceDocument{fixture(t)}

	results, summary, err := p.Batch(context.Background(), docs, BatchOptions{Concurrency: 1, Timeout: time.Nanosecond})
	require.NoError(t, err)

	assert.Nil(t, results[0])
	assert.Equal(t, 1, summary.TimedOut)
	assert.Zero(t, summary.Succeeded)
}

func TestBatch_Cancelled(t *testing.T) {
	p := newProcessor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := []model.SourceDocument{{Name: "a", Body: page("Raipur")}}
	_, summary, err := p.Batch(ctx, docs, BatchOptions{})
	require.Error(t, err)
	assert.Zero(t, summary.Succeeded)
}

func TestBatch_Empty(t *testing.T) {
	p := newProcessor(t)

	results, summary, err := p.Batch(context.Background(), nil, BatchOptions{Concurrency: 4})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, summary.Documents)
}
