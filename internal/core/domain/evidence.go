package domain

type SearchType string

const (
	SearchTypeText       SearchType = ""
	SearchTypeCLIPVisual SearchType = "CLIP_visual"
	SearchTypeVisionText SearchType = "GPT4o_Vision_text"
)

// EvidenceRecord describes a retrieved document page or page region.
type EvidenceRecord struct {
	ProjectKey   string     `json:"project_key,omitempty"`
	RelativePath string     `json:"relative_path,omitempty"`
	PageNum      *int       `json:"page_num,omitempty"`
	RegionNumber *int       `json:"region_number,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	Description  string     `json:"description,omitempty"`
	Similarity   *float64   `json:"similarity,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	SearchType   SearchType `json:"search_type,omitempty"`
}

// EvidenceKey identifies an evidence unit. Absent fields compare equal only to
// absent fields.
type EvidenceKey struct {
	ProjectKey string
	HasPage    bool
	Page       int
	HasRegion  bool
	Region     int
}

func (r EvidenceRecord) Key() EvidenceKey {
	key := EvidenceKey{ProjectKey: r.ProjectKey}
	if r.PageNum != nil {
		key.HasPage = true
		key.Page = *r.PageNum
	}
	if r.RegionNumber != nil {
		key.HasRegion = true
		key.Region = *r.RegionNumber
	}
	return key
}

// HasImageRef reports whether an image URL can be built for the record.
func (r EvidenceRecord) HasImageRef() bool {
	return r.ProjectKey != "" && r.RelativePath != ""
}

// ImageMatch is a hit from the visual similarity index.
type ImageMatch struct {
	ImageURL     string   `json:"image_url,omitempty"`
	ProjectKey   string   `json:"project_key,omitempty"`
	RelativePath string   `json:"relative_path,omitempty"`
	PageNum      *int     `json:"page_num,omitempty"`
	RegionNumber *int     `json:"region_number,omitempty"`
	Similarity   *float64 `json:"similarity,omitempty"`
}

type ImageInfo struct {
	URL          string     `json:"url"`
	ProjectKey   string     `json:"project_key,omitempty"`
	PageNum      *int       `json:"page_num,omitempty"`
	RegionNumber *int       `json:"region_number,omitempty"`
	Description  string     `json:"description,omitempty"`
	Similarity   *float64   `json:"similarity,omitempty"`
	SearchType   SearchType `json:"search_type,omitempty"`
}
