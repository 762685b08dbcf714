package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"chemradar/internal/domain"
	"chemradar/internal/store"
)

// Exercises the whole run: case-variant DOI duplicates collapse, the blank
// candidate is dropped, quotas and priority order shape the digest, and the
// store ends up with exactly the delivered identifiers.
func TestPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	source := &stubSource{articles: []domain.Article{
		{Title: "Carbene Advance", Abstract: "carbene transfer", DOI: "10.1/AB", Journal: "JACS"},
		{Title: "Carbene Advance duplicate", Abstract: "carbene transfer", DOI: " 10.1/ab "},
		{Title: "", Abstract: ""},
		{Title: "Method One", Abstract: "new ligand", DOI: "10.1/m1", Journal: "Org. Lett."},
		{Title: "Method Two", Abstract: "new catalyst", DOI: "10.1/m2", Journal: "Org. Lett."},
	}}

	analyzer := &stubAnalyzer{classify: func(a domain.Article) (*domain.Classification, error) {
		switch a.DOI {
		case "10.1/AB":
			return &domain.Classification{Category: domain.CategoryCarbene, TitleZH: "卡宾进展"}, nil
		default:
			return &domain.Classification{Category: domain.CategoryMethodology}, nil
		}
	}}

	policy := SelectionPolicy{
		Quotas: map[string]int{
			domain.CategoryCarbene:     5,
			domain.CategoryMethodology: 1,
		},
		Priority: []string{domain.CategoryCarbene, domain.CategoryMethodology},
		FailOpen: true,
	}

	notifier := &stubNotifier{ack: true}
	storePath := filepath.Join(t.TempDir(), "pushed.json")

	pipeline := NewPipeline(PipelineDeps{
		Source:    source,
		Selector:  NewSelector(nil, analyzer, policy, nil),
		Committer: NewCommitter(notifier, nil, nil),
		StorePath: storePath,
	})

	if err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if notifier.calls != 1 {
		t.Fatalf("expected one delivery, got %d", notifier.calls)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("expected 2 articles in digest, got %d", len(notifier.sent))
	}
	if notifier.sent[0].Category != domain.CategoryCarbene {
		t.Fatalf("carbene must lead the digest, got %q", notifier.sent[0].Category)
	}
	if notifier.sent[1].Title != "Method One" {
		t.Fatalf("methodology quota/order violated, got %q", notifier.sent[1].Title)
	}

	// The duplicate was analyzed at most once.
	if analyzer.calls != 3 {
		t.Fatalf("expected 3 analyzer calls (dedup + blank drop), got %d", analyzer.calls)
	}

	pushed := store.Load(storePath)
	if pushed.Len() != 2 {
		t.Fatalf("expected exactly 2 recorded identifiers, got %v", pushed.Identifiers())
	}
	if !pushed.Contains("10.1/ab") || !pushed.Contains("10.1/m1") {
		t.Fatalf("wrong identifiers recorded: %v", pushed.Identifiers())
	}
}

// A second run over the same feed content must never re-deliver.
func TestPipelineCrossRunSuppression(t *testing.T) {
	t.Parallel()

	source := &stubSource{articles: []domain.Article{
		{Title: "Carbene Advance", Abstract: "carbene transfer", DOI: "10.1/AB"},
	}}
	analyzer := &stubAnalyzer{classify: func(domain.Article) (*domain.Classification, error) {
		return &domain.Classification{Category: domain.CategoryCarbene}, nil
	}}
	notifier := &stubNotifier{ack: true}
	storePath := filepath.Join(t.TempDir(), "pushed.json")

	policy := SelectionPolicy{
		Quotas:   map[string]int{domain.CategoryCarbene: 8},
		Priority: []string{domain.CategoryCarbene},
	}

	pipeline := NewPipeline(PipelineDeps{
		Source:    source,
		Selector:  NewSelector(nil, analyzer, policy, nil),
		Committer: NewCommitter(notifier, nil, nil),
		StorePath: storePath,
	})

	if err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if notifier.calls != 1 {
		t.Fatalf("article re-delivered on second run, %d deliveries", notifier.calls)
	}
	if analyzer.calls != 1 {
		t.Fatalf("pushed article re-analyzed on second run, %d calls", analyzer.calls)
	}
}

// A failed delivery leaves state so the next run retries the same articles.
func TestPipelineRetriesAfterFailedDelivery(t *testing.T) {
	t.Parallel()

	source := &stubSource{articles: []domain.Article{
		{Title: "Carbene Advance", Abstract: "carbene transfer", DOI: "10.1/AB"},
	}}
	analyzer := &stubAnalyzer{classify: func(domain.Article) (*domain.Classification, error) {
		return &domain.Classification{Category: domain.CategoryCarbene}, nil
	}}
	notifier := &stubNotifier{ack: false}
	storePath := filepath.Join(t.TempDir(), "pushed.json")

	policy := SelectionPolicy{
		Quotas:   map[string]int{domain.CategoryCarbene: 8},
		Priority: []string{domain.CategoryCarbene},
	}

	pipeline := NewPipeline(PipelineDeps{
		Source:    source,
		Selector:  NewSelector(nil, analyzer, policy, nil),
		Committer: NewCommitter(notifier, nil, nil),
		StorePath: storePath,
	})

	if err := pipeline.Run(context.Background()); err == nil {
		t.Fatal("expected error from unacknowledged delivery")
	}

	notifier.ack = true
	if err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("retry run: %v", err)
	}

	if notifier.calls != 2 {
		t.Fatalf("expected delivery attempted on both runs, got %d", notifier.calls)
	}
	if !store.Load(storePath).Contains("10.1/ab") {
		t.Fatal("identifier not recorded after successful retry")
	}
}
