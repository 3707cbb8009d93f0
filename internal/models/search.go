package models

// ResourceFilter holds the search facets. Empty strings and zero values mean unset.
type ResourceFilter struct {
	Query        string `json:"query,omitempty"`
	Regulation   string `json:"regulation,omitempty"`
	Year         int    `json:"year,omitempty"`
	Semester     int    `json:"semester,omitempty"`
	Branch       string `json:"branch,omitempty"`
	SubjectCode  string `json:"subjectCode,omitempty"`
	DocumentType string `json:"documentType,omitempty"`
	Unit         string `json:"unit,omitempty"`
	FileType     string `json:"fileType,omitempty"`
}

// SortSpec selects the single sort clause of a search.
type SortSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// SearchRequest is one search round trip.
type SearchRequest struct {
	Filter   ResourceFilter `json:"filter"`
	Sort     SortSpec       `json:"sort"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// SearchResult is one page of assembled resources.
type SearchResult struct {
	Items    []Resource `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	HasMore  bool       `json:"hasMore"`
}

// LiveSearchMessage is a search request sent over the live search socket.
type LiveSearchMessage struct {
	SearchRequest
	// ClientSeq is echoed back so the client can correlate responses.
	ClientSeq int64 `json:"clientSeq,omitempty"`
}

// LiveSearchReply carries a search result, or the degraded marker, back to the socket client.
type LiveSearchReply struct {
	Seq       uint64        `json:"seq"`
	ClientSeq int64         `json:"clientSeq,omitempty"`
	Result    *SearchResult `json:"result"`
	Degraded  bool          `json:"degraded,omitempty"`
}
