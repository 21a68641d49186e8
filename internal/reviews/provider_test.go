package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/apperr"
)

type fakeRawReviewProvider struct {
	submitErr error
	jobID     string
	polls     []struct {
		status JobStatus
		rows   []RawReview
		err    error
	}
	pollCount int
}

func (f *fakeRawReviewProvider) SubmitJob(_ context.Context, _, _ string, _ int, _ string) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.jobID, nil
}

func (f *fakeRawReviewProvider) PollJob(_ context.Context, _ string) (JobStatus, []RawReview, error) {
	p := f.polls[f.pollCount]
	if f.pollCount < len(f.polls)-1 {
		f.pollCount++
	}
	return p.status, p.rows, p.err
}

func negativeSkewedRows(n, negatives int) []RawReview {
	rows := make([]RawReview, 0, n)
	for i := 0; i < n; i++ {
		rating := 5
		if i < negatives {
			rating = 2
		}
		rows = append(rows, RawReview{ID: string(rune('a' + i)), Rating: rating})
	}
	return rows
}

func TestFetchReviewsBacksFillFromPositivesWhenNegativesScarce(t *testing.T) {
	raw := &fakeRawReviewProvider{jobID: "job-1"}
	raw.polls = []struct {
		status JobStatus
		rows   []RawReview
		err    error
	}{
		{status: JobSuccess, rows: negativeSkewedRows(40, 8)},
	}

	p := NewProvider(raw, ProviderConfig{MaxWait: time.Second, PollInterval: time.Millisecond}, zerolog.Nop())

	out, err := p.FetchReviews(context.Background(), "listing-1", "com", 10, 5, 15)
	require.NoError(t, err)
	assert.Len(t, out, 15)

	negCount := 0
	seen := map[string]bool{}
	for _, r := range out {
		assert.False(t, seen[r.ID], "duplicate review id %s", r.ID)
		seen[r.ID] = true
		if r.Rating <= negativeRatingCeiling {
			negCount++
		}
	}
	assert.Equal(t, 8, negCount)
}

func TestFetchReviewsSubmitJobFailure(t *testing.T) {
	raw := &fakeRawReviewProvider{submitErr: assert.AnError}
	p := NewProvider(raw, ProviderConfig{}, zerolog.Nop())

	_, err := p.FetchReviews(context.Background(), "listing-1", "com", 10, 5, 15)
	require.Error(t, err)
	assert.Equal(t, apperr.KindFetchError, apperr.KindOf(err))
}

func TestFetchReviewsJobErrorStatus(t *testing.T) {
	raw := &fakeRawReviewProvider{jobID: "job-2"}
	raw.polls = []struct {
		status JobStatus
		rows   []RawReview
		err    error
	}{
		{status: JobError},
	}
	p := NewProvider(raw, ProviderConfig{MaxWait: time.Second, PollInterval: time.Millisecond}, zerolog.Nop())

	_, err := p.FetchReviews(context.Background(), "listing-1", "com", 10, 5, 15)
	require.Error(t, err)
	assert.Equal(t, apperr.KindFetchError, apperr.KindOf(err))
}

func TestFetchReviewsPollTimesOut(t *testing.T) {
	raw := &fakeRawReviewProvider{jobID: "job-3"}
	raw.polls = []struct {
		status JobStatus
		rows   []RawReview
		err    error
	}{
		{status: JobPending},
	}
	p := NewProvider(raw, ProviderConfig{MaxWait: 5 * time.Millisecond, PollInterval: time.Millisecond}, zerolog.Nop())

	_, err := p.FetchReviews(context.Background(), "listing-1", "com", 10, 5, 15)
	require.Error(t, err)
	assert.Equal(t, apperr.KindTimeBudgetExceeded, apperr.KindOf(err))
}
