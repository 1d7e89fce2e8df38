package export

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/pkg/notion"
)

// Notion database property names.
const (
	propName     = "Name"
	propRecID    = "Recommendation ID"
	propType     = "Type"
	propPriority = "Priority"
	propEffort   = "Effort"
	propDetail   = "Description"
	propURL      = "URL"
	propDomain   = "Domain"
	propStatus   = "Status"

	statusNew  = "Not started"
	statusDone = "Done"
)

// Actioner marks recommendations done.
type Actioner interface {
	MarkActioned(ctx context.Context, recommendationID string) error
}

// SyncStore is the store subset NotionSync needs.
type SyncStore interface {
	Reader
	Actioner
}

// SyncResult counts what a sync changed.
type SyncResult struct {
	Created   int      `json:"created"`
	Actioned  int      `json:"actioned"`
	Unchanged int      `json:"unchanged"`
	Errors    []string `json:"errors,omitempty"`
}

// NotionSync mirrors open recommendations into a Notion database. Pages
// moved to "Done" in Notion mark the recommendation actioned in the store.
type NotionSync struct {
	client notion.Client
	store  SyncStore
	dbID   string
}

// NewNotionSync creates a sync for the database dbID.
func NewNotionSync(client notion.Client, st SyncStore, dbID string) *NotionSync {
	return &NotionSync{client: client, store: st, dbID: dbID}
}

// Sync runs one pass. Per-recommendation failures are collected in the
// result; only listing failures abort.
func (s *NotionSync) Sync(ctx context.Context) (*SyncResult, error) {
	pages, err := notion.QueryAll(ctx, s.client, s.dbID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "export: query notion database")
	}
	statusByRec := make(map[string]string, len(pages))
	for _, p := range pages {
		if id := notion.TextProperty(p, propRecID); id != "" {
			statusByRec[id] = notion.StatusName(p, propStatus)
		}
	}

	open, err := openRecommendations(ctx, s.store)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{}
	for _, rec := range open {
		status, mirrored := statusByRec[rec.ID]
		switch {
		case mirrored && strings.EqualFold(status, statusDone):
			if err := s.store.MarkActioned(ctx, rec.ID); err != nil {
				res.fail(rec.ID, err)
				continue
			}
			res.Actioned++
		case mirrored:
			res.Unchanged++
		default:
			if err := s.create(ctx, rec); err != nil {
				res.fail(rec.ID, err)
				continue
			}
			res.Created++
		}
	}

	zap.L().Info("export: notion sync complete",
		zap.String("database", s.dbID),
		zap.Int("created", res.Created),
		zap.Int("actioned", res.Actioned),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

func (r *SyncResult) fail(recID string, err error) {
	zap.L().Warn("export: notion sync item failed", zap.String("recommendation_id", recID), zap.Error(err))
	r.Errors = append(r.Errors, recID+": "+err.Error())
}

func (s *NotionSync) create(ctx context.Context, rec model.Recommendation) error {
	var url, domain string
	if ci, err := s.store.GetIntelligence(ctx, rec.IntelligenceID); err == nil {
		url, domain = ci.URL, ci.Domain
	} else {
		zap.L().Debug("export: intelligence lookup failed", zap.String("intelligence_id", rec.IntelligenceID), zap.Error(err))
	}

	_, err := s.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.dbID),
		},
		Properties: recommendationProperties(rec, url, domain),
	})
	if err != nil {
		return eris.Wrapf(err, "export: create notion page for %s", rec.ID)
	}
	return nil
}

func recommendationProperties(rec model.Recommendation, url, domain string) notionapi.Properties {
	detail := rec.Description
	if len(rec.ActionItems) > 0 {
		detail += "\n\n- " + strings.Join(rec.ActionItems, "\n- ")
	}

	props := notionapi.Properties{
		propName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: notion.Text(rec.Title),
		},
		propRecID: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: notion.Text(rec.ID),
		},
		propType: notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: string(rec.Type)},
		},
		propPriority: notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: string(rec.Priority)},
		},
		propEffort: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: notion.Text(rec.EstimatedEffort),
		},
		propDetail: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: notion.Text(detail),
		},
		propStatus: notionapi.StatusProperty{
			Type:   notionapi.PropertyTypeStatus,
			Status: notionapi.Status{Name: statusNew},
		},
	}
	if url != "" {
		props[propURL] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: url}
	}
	if domain != "" {
		props[propDomain] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: notion.Text(domain),
		}
	}
	return props
}
