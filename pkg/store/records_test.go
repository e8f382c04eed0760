package store

import (
	"errors"
	"testing"

	"github.com/dtnitsch/sitebrief/models"
)

// setupTestStore creates an in-memory SQLite database for testing
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s := &Store{path: ":memory:"}
	var err error
	s.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := s.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return s
}

func articleResult(title, tldr string) models.AnalysisResult {
	thesis := "a thesis"
	return models.AnalysisResult{
		Title: title,
		Structured: models.StructuredAnalysis{
			Mode: models.ModeArticle,
			Article: &models.ArticleAnalysis{
				Title:              title,
				Thesis:             &thesis,
				KeyArguments:       []string{"arg"},
				EvidenceOrExamples: []string{},
				CounterpointsIfAny: []string{},
				TLDR:               []string{tldr},
				KeyPoints:          []string{},
				Citations:          []string{},
			},
		},
		Brief: models.BriefSummary{
			TLDR:      []string{tldr},
			KeyPoints: []string{"kp"},
			Citations: []string{},
		},
		RawText:          "raw",
		ConfidenceScores: map[string]float64{"overall": 0.9},
	}
}

func TestCreateAndGetRecord(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	id, err := s.CreateRecord("alice", models.ModeArticle, "https://example.com/a", articleResult("Title A", "short a"))
	if err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	if id == 0 {
		t.Fatal("CreateRecord() returned 0 id")
	}

	rec, err := s.GetRecord("alice", id)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if rec.URL != "https://example.com/a" || rec.Mode != models.ModeArticle {
		t.Errorf("record = %+v", rec)
	}
	if rec.Title != "Title A" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.Result.Structured.Article == nil || *rec.Result.Structured.Article.Thesis != "a thesis" {
		t.Error("structured section did not round-trip")
	}
	if len(rec.Result.Brief.TLDR) != 1 || rec.Result.Brief.TLDR[0] != "short a" {
		t.Errorf("brief did not round-trip: %v", rec.Result.Brief)
	}
	if rec.Result.ConfidenceScores["overall"] != 0.9 {
		t.Error("confidence scores did not round-trip")
	}
}

func TestCreateRecord_FailedSnapshotLeavesNoSource(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	// Force the snapshot insert to fail partway through the write.
	if _, err := s.Exec("DROP TABLE snapshots"); err != nil {
		t.Fatalf("failed to drop snapshots table: %v", err)
	}

	if _, err := s.CreateRecord("alice", models.ModeArticle, "https://example.com", articleResult("T", "t")); err == nil {
		t.Fatal("CreateRecord() should fail when the snapshot cannot be written")
	}

	// The source upsert must roll back with it, or the UNIQUE(owner_id,
	// url, mode) row would block a later retry from looking brand new.
	var sources int
	if err := s.QueryRow("SELECT COUNT(*) FROM sources").Scan(&sources); err != nil {
		t.Fatalf("failed to count sources: %v", err)
	}
	if sources != 0 {
		t.Errorf("source count after failed create = %d, want 0", sources)
	}
}

func TestCreateRecord_ReanalysisAppendsSnapshot(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	id1, err := s.CreateRecord("alice", models.ModeArticle, "https://example.com", articleResult("First", "v1"))
	if err != nil {
		t.Fatalf("first CreateRecord() error = %v", err)
	}
	id2, err := s.CreateRecord("alice", models.ModeArticle, "https://example.com", articleResult("Second", "v2"))
	if err != nil {
		t.Fatalf("second CreateRecord() error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("same owner/url/mode should reuse the source: %d != %d", id1, id2)
	}

	var snapshots int
	if err := s.QueryRow("SELECT COUNT(*) FROM snapshots WHERE source_id = ?", id1).Scan(&snapshots); err != nil {
		t.Fatalf("failed to count snapshots: %v", err)
	}
	if snapshots != 2 {
		t.Errorf("snapshot count = %d, want 2", snapshots)
	}

	// Reads return the latest snapshot.
	rec, err := s.GetRecord("alice", id1)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if rec.Title != "Second" || rec.Result.Brief.TLDR[0] != "v2" {
		t.Errorf("GetRecord should return the latest snapshot, got %q / %v", rec.Title, rec.Result.Brief.TLDR)
	}
}

func TestListRecords_OwnerScoped(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	if _, err := s.CreateRecord("alice", models.ModeArticle, "https://a.test/1", articleResult("A1", "t")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateRecord("alice", models.ModeArticle, "https://a.test/2", articleResult("A2", "t")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateRecord("bob", models.ModeArticle, "https://b.test/1", articleResult("B1", "t")); err != nil {
		t.Fatal(err)
	}

	records, err := s.ListRecords("alice", 0)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count = %d, want 2", len(records))
	}
	for _, r := range records {
		if r.OwnerID != "alice" {
			t.Errorf("listed foreign record: %+v", r)
		}
	}
}

func TestSearchRecords(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	if _, err := s.CreateRecord("alice", models.ModeArticle, "https://blog.test/golang-tips", articleResult("Go Tips", "t")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateRecord("alice", models.ModePolicy, "https://corp.test/privacy", articleResultAsPolicy()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "match on URL", query: "golang", want: 1},
		{name: "match on title", query: "Privacy", want: 1},
		{name: "no match", query: "kubernetes", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.SearchRecords("alice", tt.query, 0)
			if err != nil {
				t.Fatalf("SearchRecords() error = %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("result count = %d, want %d", len(records), tt.want)
			}
		})
	}

	// Other owners never see the records.
	records, err := s.SearchRecords("bob", "golang", 0)
	if err != nil {
		t.Fatalf("SearchRecords() error = %v", err)
	}
	if len(records) != 0 {
		t.Error("search must be owner-scoped")
	}
}

func articleResultAsPolicy() models.AnalysisResult {
	scope := "all users"
	return models.AnalysisResult{
		Title: "Privacy Policy",
		Structured: models.StructuredAnalysis{
			Mode: models.ModePolicy,
			Policy: &models.PolicyAnalysis{
				Title:                 "Privacy Policy",
				Scope:                 &scope,
				Obligations:           []models.Obligation{},
				Restrictions:          []models.Restriction{},
				EffectiveDatesOrNotes: []string{},
				UserRisks:             []models.UserRisk{{Risk: "tracking", Severity: "low"}},
				ActionChecklist:       []string{},
				TLDR:                  []string{},
				KeyPoints:             []string{},
				Citations:             []string{},
			},
		},
		Brief: models.BriefSummary{TLDR: []string{}, KeyPoints: []string{}, Citations: []string{}},
	}
}

func TestGetRecord_WrongOwner(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	id, err := s.CreateRecord("alice", models.ModeArticle, "https://example.com", articleResult("T", "t"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetRecord("bob", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord() with wrong owner error = %v, want ErrNotFound", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	id, err := s.CreateRecord("alice", models.ModeArticle, "https://example.com", articleResult("T", "t"))
	if err != nil {
		t.Fatal(err)
	}

	// Wrong owner cannot delete.
	if err := s.DeleteRecord("bob", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteRecord() with wrong owner error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteRecord("alice", id); err != nil {
		t.Fatalf("DeleteRecord() error = %v", err)
	}
	if _, err := s.GetRecord("alice", id); !errors.Is(err, ErrNotFound) {
		t.Error("record should be gone after delete")
	}

	// Snapshots follow their source.
	var snapshots int
	if err := s.QueryRow("SELECT COUNT(*) FROM snapshots WHERE source_id = ?", id).Scan(&snapshots); err != nil {
		t.Fatalf("failed to count snapshots: %v", err)
	}
	if snapshots != 0 {
		t.Errorf("snapshot count after delete = %d, want 0", snapshots)
	}

	if err := s.DeleteRecord("alice", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestPolicyRecordRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	id, err := s.CreateRecord("alice", models.ModePolicy, "https://corp.test/privacy", articleResultAsPolicy())
	if err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}

	rec, err := s.GetRecord("alice", id)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	p := rec.Result.Structured.Policy
	if p == nil {
		t.Fatal("policy variant not decoded")
	}
	if p.Scope == nil || *p.Scope != "all users" {
		t.Error("scope did not round-trip")
	}
	if len(p.UserRisks) != 1 || p.UserRisks[0].Severity != "low" {
		t.Errorf("user risks did not round-trip: %v", p.UserRisks)
	}
}
