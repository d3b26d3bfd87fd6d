package audit

import "time"

// Well-known actions recorded by the RBAC administration flows. The field
// is free-form; other subsystems may record their own verbs.
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionAssignRole = "assign_role"
	ActionRemoveRole = "remove_role"
)

// Entry is one immutable record of an administrative mutation.
type Entry struct {
	ID           string         `json:"id"`
	ActorID      string         `json:"userId"`
	ActorName    string         `json:"userName"`
	Action       string         `json:"action"`
	Module       string         `json:"module"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	Details      map[string]any `json:"details,omitempty"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Filters narrows a query. Zero values mean "no filter"; filters combine
// with AND. The time range is inclusive on both ends.
type Filters struct {
	ActorID  string
	Module   string
	Action   string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// PagingInfo caps a paged result.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	PrevPage int  `json:"prevPage,omitempty"`
	NextPage int  `json:"nextPage,omitempty"`
}

// Result is one page of the trail, newest first.
type Result struct {
	Entries []Entry    `json:"entries"`
	Paging  PagingInfo `json:"paging"`
}
