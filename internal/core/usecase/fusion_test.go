package usecase

import (
	"reflect"
	"testing"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func evidence(project string, page, region *int, searchType domain.SearchType) domain.EvidenceRecord {
	return domain.EvidenceRecord{
		ProjectKey:   project,
		RelativePath: project + "/img.png",
		PageNum:      page,
		RegionNumber: region,
		SearchType:   searchType,
	}
}

func TestFuseEvidenceKeepsPathOrderWithoutOverlap(t *testing.T) {
	visual := []domain.EvidenceRecord{
		evidence("P1", intPtr(1), nil, domain.SearchTypeCLIPVisual),
		evidence("P1", intPtr(2), nil, domain.SearchTypeCLIPVisual),
	}
	caption := []domain.EvidenceRecord{
		evidence("P2", intPtr(1), intPtr(1), domain.SearchTypeVisionText),
	}

	fused := fuseEvidence(visual, caption)
	want := append(append([]domain.EvidenceRecord{}, visual...), caption...)
	if !reflect.DeepEqual(fused, want) {
		t.Fatalf("expected visual then caption records, got %+v", fused)
	}
	if got := trimEvidence(fused, 2); !reflect.DeepEqual(got, want[:2]) {
		t.Fatalf("expected trimmed prefix, got %+v", got)
	}
}

func TestFuseEvidenceVisualWinsOnOverlap(t *testing.T) {
	visual := []domain.EvidenceRecord{evidence("P1", intPtr(3), intPtr(2), domain.SearchTypeCLIPVisual)}
	caption := []domain.EvidenceRecord{
		evidence("P1", intPtr(3), intPtr(2), domain.SearchTypeVisionText),
		evidence("P1", intPtr(4), nil, domain.SearchTypeVisionText),
	}

	fused := fuseEvidence(visual, caption)
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused records, got %d", len(fused))
	}
	if fused[0].SearchType != domain.SearchTypeCLIPVisual {
		t.Fatalf("expected visual record to survive, got %s", fused[0].SearchType)
	}
	if fused[1].PageNum == nil || *fused[1].PageNum != 4 {
		t.Fatalf("expected page 4 second, got %+v", fused[1])
	}
}

func TestFuseEvidenceAbsentFieldsAreNotWildcards(t *testing.T) {
	records := []domain.EvidenceRecord{
		evidence("P1", nil, nil, ""),
		evidence("P1", intPtr(1), nil, ""),
		evidence("P1", intPtr(1), intPtr(0), ""),
		evidence("P1", nil, nil, ""),
		evidence("", nil, nil, ""),
		evidence("", nil, nil, ""),
	}

	fused := fuseEvidence(records, nil)
	if len(fused) != 4 {
		t.Fatalf("expected 4 distinct keys, got %d: %+v", len(fused), fused)
	}
}

func TestFuseEvidenceIsIdempotent(t *testing.T) {
	list := []domain.EvidenceRecord{
		evidence("P1", intPtr(1), nil, ""),
		evidence("P1", intPtr(1), nil, ""),
		evidence("P2", intPtr(7), intPtr(1), ""),
	}

	once := fuseEvidence(list, nil)
	twice := fuseEvidence(append(append([]domain.EvidenceRecord{}, list...), list...), nil)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected idempotent fusion, once=%+v twice=%+v", once, twice)
	}
	if again := fuseEvidence(once, once); !reflect.DeepEqual(again, once) {
		t.Fatalf("expected fused set to be stable, got %+v", again)
	}
}

func TestTagEvidenceDoesNotMutateInput(t *testing.T) {
	in := []domain.EvidenceRecord{evidence("P1", intPtr(1), nil, "")}
	out := tagEvidence(in, domain.SearchTypeVisionText)
	if in[0].SearchType != "" {
		t.Fatalf("input mutated: %+v", in[0])
	}
	if out[0].SearchType != domain.SearchTypeVisionText {
		t.Fatalf("expected tagged record, got %+v", out[0])
	}
}
