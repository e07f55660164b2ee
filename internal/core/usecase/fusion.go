package usecase

import "github.com/kirillkom/visual-rag-router/internal/core/domain"

// fuseEvidence concatenates visual-path records before caption-path records and
// drops later records whose identity key was already seen.
func fuseEvidence(visual, caption []domain.EvidenceRecord) []domain.EvidenceRecord {
	seen := make(map[domain.EvidenceKey]struct{}, len(visual)+len(caption))
	out := make([]domain.EvidenceRecord, 0, len(visual)+len(caption))

	addList := func(records []domain.EvidenceRecord) {
		for _, record := range records {
			key := record.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, record)
		}
	}

	addList(visual)
	addList(caption)
	return out
}

func trimEvidence(records []domain.EvidenceRecord, limit int) []domain.EvidenceRecord {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	return records[:limit]
}

func tagEvidence(records []domain.EvidenceRecord, searchType domain.SearchType) []domain.EvidenceRecord {
	out := make([]domain.EvidenceRecord, len(records))
	for i, record := range records {
		record.SearchType = searchType
		out[i] = record
	}
	return out
}
