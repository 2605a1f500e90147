package dto

import "surveillance/internal/models"

// EvidenceItem is a catalog record with the URL it is served under.
type EvidenceItem struct {
	models.EvidenceRecord
	URL string `json:"url"`
}

// EvidencePage is a paginated response payload for the evidence catalog.
type EvidencePage struct {
	Items       []EvidenceItem `json:"items"`
	Length      int            `json:"length"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Limit       int            `json:"pageSize"`
}
