package citation_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/citation"
	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream/mocks"
)

func TestFilterIDs(t *testing.T) {
	ids := citation.FilterIDs(context.Background(), []any{3, -1, 3, "x", 7, 0, 2.5, float64(9), json.Number("11"), nil})
	assert.Equal(t, []int{3, 7, 9, 11}, ids)
}

func TestResolve_FiltersAndIndexes(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockClient(t)
	client.On("GetCitation", ctx, "agent", 3).Return(&upstream.CitationRecord{ID: 3, Title: "Three", URL: "https://3"}, nil).Once()
	client.On("GetCitation", ctx, "agent", 7).Return(&upstream.CitationRecord{ID: 7, Title: "Seven"}, nil).Once()

	got := citation.NewResolver(client).Resolve(ctx, "agent", []any{3, -1, 3, "x", 7})

	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, "https://3", got[0].URL)
	assert.Equal(t, 7, got[1].ID)
	assert.Equal(t, 2, got[1].Index)
}

func TestResolve_NotFoundIsSkipped(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockClient(t)
	client.On("GetCitation", ctx, "agent", 1).Return(nil, &app_errors.UpstreamError{Status: http.StatusNotFound}).Once()
	client.On("GetCitation", ctx, "agent", 2).Return(&upstream.CitationRecord{ID: 2}, nil).Once()

	got := citation.NewResolver(client).Resolve(ctx, "agent", []any{1, 2})

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 2, got[0].Index, "index follows the filtered id list")
	assert.Equal(t, "Source 2", got[0].Title)
}

func TestResolve_OtherFailuresYieldPlaceholder(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockClient(t)
	client.On("GetCitation", ctx, "agent", 5).Return(nil, errors.New("connection reset")).Once()
	client.On("GetCitation", ctx, "agent", 6).Return(nil, &app_errors.UpstreamError{Status: http.StatusInternalServerError}).Once()

	got := citation.NewResolver(client).Resolve(ctx, "agent", []any{5, 6})

	require.Len(t, got, 2)
	for i, c := range got {
		assert.Equal(t, i+1, c.Index)
		assert.Empty(t, c.Source)
		assert.Empty(t, c.URL)
		assert.Equal(t, citation.PlaceholderContent, c.Content)
	}
}

func TestResolve_NothingValidMakesNoCalls(t *testing.T) {
	client := mocks.NewMockClient(t)
	got := citation.NewResolver(client).Resolve(context.Background(), "agent", []any{"a", -4})
	assert.Empty(t, got)
	client.AssertNotCalled(t, "GetCitation", mock.Anything, mock.Anything, mock.Anything)
}
