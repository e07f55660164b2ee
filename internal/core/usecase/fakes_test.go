package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

type textEmbedderFake struct {
	mu     sync.Mutex
	texts  []string
	vector []float32
	err    error
}

func (f *textEmbedderFake) EmbedText(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	if f.vector == nil {
		return []float32{0.1, 0.2}, nil
	}
	return f.vector, nil
}

func (f *textEmbedderFake) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type imageEmbedderFake struct {
	mu     sync.Mutex
	calls  int
	vector []float32
	err    error
}

func (f *imageEmbedderFake) EmbedImage(context.Context, domain.Image) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vector == nil {
		return []float32{0.5, 0.5}, nil
	}
	return f.vector, nil
}

type descriptionSearcherFake struct {
	mu          sync.Mutex
	records     []domain.EvidenceRecord
	searchErr   error
	byPath      map[string][]domain.EvidenceRecord
	byPathErr   error
	limits      []int
	useSummary  []bool
	pathLookups []string
}

func (f *descriptionSearcherFake) SearchDescriptions(_ context.Context, _ []float32, limit int, useSummary bool) ([]domain.EvidenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	f.useSummary = append(f.useSummary, useSummary)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]domain.EvidenceRecord(nil), f.records...), nil
}

func (f *descriptionSearcherFake) DescriptionsByPaths(_ context.Context, projectKey string, paths []string) ([]domain.EvidenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.EvidenceRecord
	for _, path := range paths {
		key := projectKey + "|" + path
		f.pathLookups = append(f.pathLookups, key)
		out = append(out, f.byPath[key]...)
	}
	if f.byPathErr != nil {
		return nil, f.byPathErr
	}
	return out, nil
}

type imageSearcherFake struct {
	mu      sync.Mutex
	matches []domain.ImageMatch
	err     error
	limit   int
}

func (f *imageSearcherFake) SearchImages(_ context.Context, _ []float32, limit int) ([]domain.ImageMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.ImageMatch(nil), f.matches...), nil
}

const testImageBase = "http://images.test/test_embeddings/"

type urlResolverFake struct{}

func (urlResolverFake) ImageURL(projectKey, relativePath string) string {
	return testImageBase + projectKey + "/" + relativePath
}

func (urlResolverFake) RelativePath(projectKey, imageURL string) (string, bool) {
	marker := "test_embeddings/" + projectKey + "/"
	idx := strings.LastIndex(imageURL, marker)
	if idx < 0 {
		return "", false
	}
	rel := imageURL[idx+len(marker):]
	return rel, rel != ""
}

type visionModelFake struct {
	mu          sync.Mutex
	caption     string
	captionErr  error
	answer      string
	answerErr   error
	questions   []string
	evidence    [][]domain.EvidenceRecord
	histories   [][]domain.ConversationTurn
	captionCall int
}

func (f *visionModelFake) CaptionImage(context.Context, domain.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captionCall++
	if f.captionErr != nil {
		return "", f.captionErr
	}
	return f.caption, nil
}

func (f *visionModelFake) GenerateAnswer(_ context.Context, question string, evidence []domain.EvidenceRecord, history []domain.ConversationTurn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, question)
	f.evidence = append(f.evidence, evidence)
	f.histories = append(f.histories, history)
	if f.answerErr != nil {
		return "", f.answerErr
	}
	if f.answer == "" {
		return "answer", nil
	}
	return f.answer, nil
}

var errBackend = errors.New("backend down")

type orchestratorFixture struct {
	text   *textEmbedderFake
	image  *imageEmbedderFake
	descs  *descriptionSearcherFake
	images *imageSearcherFake
	model  *visionModelFake
}

func newOrchestratorFixture() *orchestratorFixture {
	return &orchestratorFixture{
		text:   &textEmbedderFake{},
		image:  &imageEmbedderFake{},
		descs:  &descriptionSearcherFake{byPath: map[string][]domain.EvidenceRecord{}},
		images: &imageSearcherFake{},
		model:  &visionModelFake{caption: "a floor plan"},
	}
}

func (f *orchestratorFixture) build(opts OrchestratorOptions) *OrchestratorUseCase {
	return NewOrchestratorUseCase(f.text, f.image, f.descs, f.images, urlResolverFake{}, f.model, opts, nil)
}

func queryImage() *domain.Image {
	return &domain.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}
}
