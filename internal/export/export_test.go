package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/store"
)

func strPtr(s string) *string { return &s }

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "export.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// seed stores n intelligence records; every even one gets a recommendation.
func seed(t *testing.T, st store.Store, n int) []string {
	t.Helper()
	ctx := context.Background()
	status := 200
	var recIDs []string
	for i := range n {
		ci := &model.CitationIntelligence{
			CitationID:     fmt.Sprintf("c-%d", i),
			SourceAnswerID: "answer-1",
			URL:            fmt.Sprintf("https://reddit.com/r/apps/%d", i),
			Domain:         "reddit.com",
			Title:          "Best budgeting apps?",
			Verification:   model.Verification{Reachable: true, StatusCode: &status, CheckedAt: time.Now().UTC()},
			Classification: model.Classification{
				Category:         model.CategoryUGC,
				Subcategory:      strPtr("reddit"),
				OpportunityLevel: model.OpportunityEasy,
			},
			Status: model.IntelligenceCompleted,
		}
		require.NoError(t, st.UpsertIntelligence(ctx, ci))
		if i%2 == 0 {
			rec := &model.Recommendation{
				Type:            model.RecommendationCommunityResponse,
				Priority:        model.PriorityHigh,
				Title:           fmt.Sprintf("Reply in thread %d", i),
				Description:     "Answer the question with a disclosed brand reply.",
				ActionItems:     []string{"read thread", "reply"},
				EstimatedEffort: "1h",
			}
			require.NoError(t, st.ReplaceRecommendation(ctx, ci.ID, rec))
			recIDs = append(recIDs, rec.ID)
		}
	}
	return recIDs
}

func TestCollect(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, 3)

	rows, err := Collect(context.Background(), st, store.IntelligenceFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	withRec := 0
	for _, r := range rows {
		if r.Recommendation != nil {
			withRec++
			assert.Equal(t, r.Intelligence.ID, r.Recommendation.IntelligenceID)
		}
	}
	assert.Equal(t, 2, withRec)
}

func TestWriteWorkbook(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, 3)
	rows, err := Collect(context.Background(), st, store.IntelligenceFilter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, rows))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	intel := f.Sheet["Intelligence"]
	require.NotNil(t, intel)
	require.Len(t, intel.Rows, 4)
	assert.Equal(t, "URL", intel.Rows[0].Cells[1].String())
	assert.Equal(t, "reddit.com", intel.Rows[1].Cells[2].String())
	assert.Equal(t, "ugc", intel.Rows[1].Cells[9].String())
	assert.Equal(t, "reddit", intel.Rows[1].Cells[10].String())

	recs := f.Sheet["Recommendations"]
	require.NotNil(t, recs)
	require.Len(t, recs.Rows, 3)
	assert.Equal(t, "community_response", recs.Rows[1].Cells[3].String())
	assert.Equal(t, "read thread\nreply", recs.Rows[1].Cells[7].String())
}

func TestWriteWorkbook_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, f.Sheet["Intelligence"].Rows, 1)
}

type mockNotion struct {
	mock.Mock
}

func (m *mockNotion) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *mockNotion) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *mockNotion) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func mirroredPage(recID, status string) notionapi.Page {
	return notionapi.Page{Properties: notionapi.Properties{
		propRecID:  &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: recID}}},
		propStatus: &notionapi.StatusProperty{Status: notionapi.Status{Name: status}},
	}}
}

func TestNotionSync(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	recIDs := seed(t, st, 6) // three recommendations
	require.Len(t, recIDs, 3)

	mc := new(mockNotion)
	mc.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{
			mirroredPage(recIDs[0], "Done"),
			mirroredPage(recIDs[1], "In progress"),
			{ID: "unrelated"},
		},
	}, nil)
	mc.On("CreatePage", mock.Anything, mock.MatchedBy(func(req *notionapi.PageCreateRequest) bool {
		id, ok := req.Properties[propRecID].(notionapi.RichTextProperty)
		url, hasURL := req.Properties[propURL].(notionapi.URLProperty)
		return ok && id.RichText[0].Text.Content == recIDs[2] &&
			hasURL && url.URL != "" &&
			req.Parent.DatabaseID == "db-1"
	})).Return(&notionapi.Page{ID: "new"}, nil).Once()

	res, err := NewNotionSync(mc, st, "db-1").Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Actioned)
	assert.Equal(t, 1, res.Unchanged)
	assert.Empty(t, res.Errors)
	mc.AssertExpectations(t)

	actioned := true
	done, err := st.ListRecommendations(ctx, store.RecommendationFilter{Actioned: &actioned})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, recIDs[0], done[0].ID)
}

func TestNotionSync_CreateFailureCollected(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, 1)

	mc := new(mockNotion)
	mc.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil)
	mc.On("CreatePage", mock.Anything, mock.Anything).Return(nil, errors.New("validation_error"))

	res, err := NewNotionSync(mc, st, "db-1").Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "validation_error")
}

func TestNotionSync_QueryFailure(t *testing.T) {
	mc := new(mockNotion)
	mc.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(nil, errors.New("unauthorized"))

	_, err := NewNotionSync(mc, newTestStore(t), "db-1").Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query notion database")
}

func TestRecommendationProperties(t *testing.T) {
	rec := model.Recommendation{
		ID:          "rec-1",
		Type:        model.RecommendationPressOutreach,
		Priority:    model.PriorityMedium,
		Title:       "Pitch the reviewer",
		Description: "Offer a briefing.",
		ActionItems: []string{"find author", "send pitch"},
	}

	props := recommendationProperties(rec, "", "")
	assert.NotContains(t, props, propURL)
	assert.NotContains(t, props, propDomain)

	detail := props[propDetail].(notionapi.RichTextProperty)
	assert.Equal(t, "Offer a briefing.\n\n- find author\n- send pitch", detail.RichText[0].Text.Content)
	assert.Equal(t, "press_outreach", props[propType].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, statusNew, props[propStatus].(notionapi.StatusProperty).Status.Name)

	props = recommendationProperties(rec, "https://a.com/x", "a.com")
	assert.Equal(t, "https://a.com/x", props[propURL].(notionapi.URLProperty).URL)
}
