package models

import "sort"

// Health is the cluster-reported health of an index
type Health string

const (
	HealthGreen  Health = "green"
	HealthYellow Health = "yellow"
	HealthRed    Health = "red"
)

// IndexBrief is the one-line summary of an index as reported by _cat/indices
type IndexBrief struct {
	Index        string
	UUID         string
	Health       Health
	Status       string
	Pri          int
	Rep          int
	DocsCount    int64
	DocsDeleted  int64
	StoreSize    string
	PriStoreSize string
	Aliases      []string
}

// TypelessType is the type name used for indices whose mapping has no
// document types.
const TypelessType = "_doc"

// DocType is a document type and its ordered top-level fields
type DocType struct {
	Name   string
	Fields []string
}

// SchemaCatalog is the ordered list of document types of an index
type SchemaCatalog struct {
	Types []DocType
	// Typeless is set when the mapping had no type level. Requests for such
	// an index leave the type out of the path.
	Typeless bool
}

// TypeNames returns the type names in mapping order
func (c SchemaCatalog) TypeNames() []string {
	names := make([]string, 0, len(c.Types))
	for _, t := range c.Types {
		names = append(names, t.Name)
	}
	return names
}

// Fields returns the field list of a type, or nil when the type is unknown
func (c SchemaCatalog) Fields(typeName string) []string {
	for _, t := range c.Types {
		if t.Name == typeName {
			return t.Fields
		}
	}
	return nil
}

// HasType reports whether the catalog contains the type
func (c SchemaCatalog) HasType(typeName string) bool {
	for _, t := range c.Types {
		if t.Name == typeName {
			return true
		}
	}
	return false
}

// IndexSchema is what a query tab needs to know about its index
type IndexSchema struct {
	Index   string
	Catalog SchemaCatalog
	Brief   IndexBrief
}

// ClusterInfo is the subset of the root endpoint response we display
type ClusterInfo struct {
	Name          string
	ClusterName   string
	ClusterUUID   string
	Version       string
	LuceneVersion string
	Tagline       string
}

// ClusterStats are totals aggregated from the _stats endpoint
type ClusterStats struct {
	TotalDocs      int64
	DeletedDocs    int64
	TotalSizeBytes int64
	SegmentCount   int64
}

// Overview is the cluster-level summary shown in an overview tab
type Overview struct {
	Info    ClusterInfo
	Stats   ClusterStats
	Indices []IndexBrief
}

// SortBriefsByDocs orders briefs by document count, largest first
func SortBriefsByDocs(briefs []IndexBrief) {
	sort.SliceStable(briefs, func(i, j int) bool {
		if briefs[i].DocsCount == briefs[j].DocsCount {
			return briefs[i].Index < briefs[j].Index
		}
		return briefs[i].DocsCount > briefs[j].DocsCount
	})
}

// SortBriefsByName orders briefs by index name
func SortBriefsByName(briefs []IndexBrief) {
	sort.SliceStable(briefs, func(i, j int) bool {
		return briefs[i].Index < briefs[j].Index
	})
}
