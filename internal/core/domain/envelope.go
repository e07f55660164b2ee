package domain

// ResponseEnvelope is the uniform answer returned for every query.
// ClipMatches, TextMatches, Route and Fallback are diagnostics only.
type ResponseEnvelope struct {
	Response    string           `json:"response"`
	Sources     []EvidenceRecord `json:"sources"`
	Images      []string         `json:"images"`
	ImageInfo   []ImageInfo      `json:"image_info,omitempty"`
	SearchType  SearchType       `json:"search_type,omitempty"`
	ClipMatches []ImageMatch     `json:"clip_matches,omitempty"`
	TextMatches []EvidenceRecord `json:"text_matches,omitempty"`
	Route       RouteKind        `json:"route,omitempty"`
	Fallback    FallbackKind     `json:"fallback,omitempty"`
}

func NewEnvelope(response string) ResponseEnvelope {
	return ResponseEnvelope{
		Response: response,
		Sources:  []EvidenceRecord{},
		Images:   []string{},
	}
}
