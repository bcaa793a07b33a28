package citation

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/observability"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
)

// PlaceholderContent marks a citation whose details could not be fetched.
const PlaceholderContent = "Citation details are temporarily unavailable."

// Lookup fetches the details of one citation.
type Lookup interface {
	GetCitation(ctx context.Context, agentID string, citationID int) (*upstream.CitationRecord, error)
}

type Resolver struct {
	lookup Lookup
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve turns raw citation references into citations. Each citation's Index
// is its 1-based position in the filtered id list. Ids the backend reports as
// missing are skipped; any other failure yields a placeholder.
func (r *Resolver) Resolve(ctx context.Context, agentID string, raw []any) []model.Citation {
	ids := FilterIDs(ctx, raw)
	if len(ids) == 0 {
		return nil
	}
	log := observability.FromContext(ctx)

	out := make([]model.Citation, 0, len(ids))
	for i, id := range ids {
		rec, err := r.lookup.GetCitation(ctx, agentID, id)
		switch {
		case err == nil:
			out = append(out, model.Citation{
				ID:      id,
				Index:   i + 1,
				Title:   titleOr(rec.Title, id),
				Source:  rec.Description,
				URL:     rec.URL,
				Content: rec.Content,
			})
		case errors.Is(err, app_errors.ErrNotFound):
			log.Debug("Skipping citation that no longer exists", "citation_id", id)
		default:
			log.Warn("Citation lookup failed, using placeholder", "citation_id", id, "error", err)
			out = append(out, Placeholder(id, i+1))
		}
	}
	return out
}

// Placeholder is the citation emitted when the lookup failed for a reason
// other than the citation not existing.
func Placeholder(id, index int) model.Citation {
	return model.Citation{
		ID:      id,
		Index:   index,
		Title:   titleOr("", id),
		Content: PlaceholderContent,
	}
}

// FilterIDs keeps strictly positive integral numbers, dropping duplicates
// while preserving first-seen order.
func FilterIDs(ctx context.Context, raw []any) []int {
	seen := make(map[int]bool, len(raw))
	ids := make([]int, 0, len(raw))
	for _, v := range raw {
		id, ok := asPositiveInt(v)
		if !ok {
			observability.FromContext(ctx).Debug("Dropping invalid citation id", "value", v)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func asPositiveInt(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func titleOr(title string, id int) string {
	if title != "" {
		return title
	}
	return "Source " + strconv.Itoa(id)
}
