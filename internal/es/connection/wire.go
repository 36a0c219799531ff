package connection

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rebeliceyang/lazyes/internal/models"
)

// SearchResponse is the decoded body of a _search call
type SearchResponse struct {
	Took     int64 `json:"took"`
	TimedOut bool  `json:"timed_out"`
	Hits     struct {
		Total HitsTotal `json:"total"`
		Hits  []Hit     `json:"hits"`
	} `json:"hits"`
}

// HitsTotal accepts both the plain number of 6.x and the {value, relation}
// object of 7.x.
type HitsTotal struct {
	Value    int64
	Relation string
}

func (t *HitsTotal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] != '{' {
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return err
		}
		t.Value, t.Relation = n, "eq"
		return nil
	}
	var obj struct {
		Value    int64  `json:"value"`
		Relation string `json:"relation"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Value, t.Relation = obj.Value, obj.Relation
	return nil
}

// Hit is one matched document
type Hit struct {
	Index  string         `json:"_index"`
	Type   string         `json:"_type"`
	ID     string         `json:"_id"`
	Score  *float64       `json:"_score"`
	Source map[string]any `json:"_source"`
}

// IndexMapping is the per-index entry of a _mapping response. Mappings is
// kept raw so property order survives decoding.
type IndexMapping struct {
	Mappings json.RawMessage `json:"mappings"`
}

// MappingResponse is keyed by concrete index name
type MappingResponse map[string]IndexMapping

// CatIndexRow is one row of _cat/indices?format=json. Every value is a
// string; closed indices report nulls.
type CatIndexRow struct {
	Health       string `json:"health"`
	Status       string `json:"status"`
	Index        string `json:"index"`
	UUID         string `json:"uuid"`
	Pri          string `json:"pri"`
	Rep          string `json:"rep"`
	DocsCount    string `json:"docs.count"`
	DocsDeleted  string `json:"docs.deleted"`
	StoreSize    string `json:"store.size"`
	PriStoreSize string `json:"pri.store.size"`
}

// Brief converts the row into an IndexBrief
func (r CatIndexRow) Brief() models.IndexBrief {
	return models.IndexBrief{
		Index:        r.Index,
		UUID:         r.UUID,
		Health:       models.Health(r.Health),
		Status:       r.Status,
		Pri:          int(parseInt(r.Pri)),
		Rep:          int(parseInt(r.Rep)),
		DocsCount:    parseInt(r.DocsCount),
		DocsDeleted:  parseInt(r.DocsDeleted),
		StoreSize:    r.StoreSize,
		PriStoreSize: r.PriStoreSize,
	}
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// CatAliasRow is one row of _cat/aliases?format=json
type CatAliasRow struct {
	Alias         string `json:"alias"`
	Index         string `json:"index"`
	Filter        string `json:"filter"`
	RoutingIndex  string `json:"routing.index"`
	RoutingSearch string `json:"routing.search"`
	IsWriteIndex  string `json:"is_write_index"`
}

// InfoResponse is the body of the root endpoint
type InfoResponse struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	ClusterUUID string `json:"cluster_uuid"`
	Version     struct {
		Number        string `json:"number"`
		LuceneVersion string `json:"lucene_version"`
	} `json:"version"`
	Tagline string `json:"tagline"`
}

// ClusterInfo converts the response into the display model
func (r InfoResponse) ClusterInfo() models.ClusterInfo {
	return models.ClusterInfo{
		Name:          r.Name,
		ClusterName:   r.ClusterName,
		ClusterUUID:   r.ClusterUUID,
		Version:       r.Version.Number,
		LuceneVersion: r.Version.LuceneVersion,
		Tagline:       r.Tagline,
	}
}

// StatsSection is the primaries or total block of an _stats response
type StatsSection struct {
	Docs struct {
		Count   int64 `json:"count"`
		Deleted int64 `json:"deleted"`
	} `json:"docs"`
	Store struct {
		SizeInBytes int64 `json:"size_in_bytes"`
	} `json:"store"`
	Segments struct {
		Count int64 `json:"count"`
	} `json:"segments"`
}

// IndicesStatsResponse is the body of an _stats call
type IndicesStatsResponse struct {
	All struct {
		Primaries StatsSection `json:"primaries"`
		Total     StatsSection `json:"total"`
	} `json:"_all"`
	Indices map[string]struct {
		Primaries StatsSection `json:"primaries"`
		Total     StatsSection `json:"total"`
	} `json:"indices"`
}

// ClusterStats aggregates the _all block. Document counts come from
// primaries, size and segments from all copies.
func (r IndicesStatsResponse) ClusterStats() models.ClusterStats {
	return models.ClusterStats{
		TotalDocs:      r.All.Primaries.Docs.Count,
		DeletedDocs:    r.All.Primaries.Docs.Deleted,
		TotalSizeBytes: r.All.Total.Store.SizeInBytes,
		SegmentCount:   r.All.Total.Segments.Count,
	}
}

// DocWriteResponse is the body of a single update or delete
type DocWriteResponse struct {
	Index   string `json:"_index"`
	Type    string `json:"_type"`
	ID      string `json:"_id"`
	Version int64  `json:"_version"`
	Result  string `json:"result"`

	StatusCode int    `json:"-"`
	Raw        []byte `json:"-"`
}

// BulkItem is the outcome of one bulk sub-operation
type BulkItem struct {
	Index  string          `json:"_index"`
	Type   string          `json:"_type"`
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Result string          `json:"result"`
	Found  *bool           `json:"found"`
	Error  json.RawMessage `json:"error"`
}

// BulkResponse is the body of a _bulk call. Each item is keyed by its
// action name.
type BulkResponse struct {
	Took   int64                 `json:"took"`
	Errors bool                  `json:"errors"`
	Items  []map[string]BulkItem `json:"items"`

	StatusCode int    `json:"-"`
	Raw        []byte `json:"-"`
}

// ByQueryResponse is the body of _delete_by_query and _update_by_query
type ByQueryResponse struct {
	Took             int64             `json:"took"`
	TimedOut         bool              `json:"timed_out"`
	Total            int64             `json:"total"`
	Deleted          int64             `json:"deleted"`
	Updated          int64             `json:"updated"`
	Batches          int64             `json:"batches"`
	VersionConflicts int64             `json:"version_conflicts"`
	Noops            int64             `json:"noops"`
	Failures         []json.RawMessage `json:"failures"`

	StatusCode int    `json:"-"`
	Raw        []byte `json:"-"`
}
