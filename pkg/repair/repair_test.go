package repair

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dtnitsch/sitebrief/models"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.calls++
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func completeParsed() map[string]any {
	return map[string]any{
		"brief_json":      map[string]any{"tldr": []any{"short"}, "key_points": []any{"p"}},
		"structured_json": map[string]any{"thesis": "t"},
	}
}

func TestIfIncomplete_CompleteResponseSkipsRepair(t *testing.T) {
	fake := &fakeCompleter{}
	parsed := completeParsed()

	got := IfIncomplete(context.Background(), fake, models.ModeArticle, parsed, testLogger())

	if fake.calls != 0 {
		t.Errorf("repair made %d completion calls, want 0", fake.calls)
	}
	if len(got) != len(parsed) {
		t.Error("complete response should pass through unchanged")
	}
}

func TestIfIncomplete_BriefWithOnlyKeyPointsCounts(t *testing.T) {
	fake := &fakeCompleter{}
	parsed := map[string]any{
		"brief_json":      map[string]any{"tldr": []any{}, "key_points": []any{"p"}},
		"structured_json": map[string]any{"thesis": "t"},
	}

	IfIncomplete(context.Background(), fake, models.ModeArticle, parsed, testLogger())
	if fake.calls != 0 {
		t.Error("non-empty key_points should make the brief count as present")
	}
}

func TestIfIncomplete_MissingBriefTriggersOneRepair(t *testing.T) {
	fake := &fakeCompleter{
		response: `{"brief_json": {"tldr": ["repaired"], "key_points": ["rp"]}, "structured_json": {"thesis": "new"}}`,
	}
	parsed := map[string]any{
		"title":           "kept title",
		"structured_json": map[string]any{"thesis": "original"},
	}

	got := IfIncomplete(context.Background(), fake, models.ModeArticle, parsed, testLogger())

	if fake.calls != 1 {
		t.Fatalf("repair made %d completion calls, want exactly 1", fake.calls)
	}
	if !strings.Contains(fake.lastUser, "brief_json") {
		t.Error("repair request should name the missing section")
	}
	if !strings.Contains(fake.lastUser, `"tldr"`) {
		t.Error("repair request should embed the brief shape")
	}
	if strings.Contains(fake.lastUser, `"thesis"`) {
		t.Error("repair request must not embed the structured shape when only the brief is missing")
	}

	if got["title"] != "kept title" {
		t.Error("unrelated keys must survive the merge")
	}
	brief, ok := got["brief_json"].(map[string]any)
	if !ok {
		t.Fatal("repaired brief_json missing")
	}
	tldr := brief["tldr"].([]any)
	if len(tldr) != 1 || tldr[0] != "repaired" {
		t.Errorf("brief_json not merged: %v", brief)
	}
	// Returned structured_json overwrites the original too.
	structured := got["structured_json"].(map[string]any)
	if structured["thesis"] != "new" {
		t.Errorf("structured_json should be overwritten by the repair response, got %v", structured)
	}
}

func TestIfIncomplete_MissingStructuredRequestsOnlyThat(t *testing.T) {
	fake := &fakeCompleter{response: `{"structured_json": {"thesis": "filled"}}`}
	parsed := map[string]any{
		"brief_json": map[string]any{"tldr": []any{"short"}, "key_points": []any{"p"}},
	}

	IfIncomplete(context.Background(), fake, models.ModeArticle, parsed, testLogger())

	if fake.calls != 1 {
		t.Fatalf("repair made %d completion calls, want exactly 1", fake.calls)
	}
	if !strings.Contains(fake.lastUser, "structured_json") {
		t.Error("repair request should name the missing section")
	}
	if !strings.Contains(fake.lastUser, `"thesis"`) {
		t.Error("repair request should embed the structured shape")
	}
	if strings.Contains(fake.lastUser, "brief_json") {
		t.Error("repair request must not mention the brief when it is already present")
	}
	if strings.Contains(fake.lastUser, "ALL sections") {
		t.Error("repair request must ask for the missing fields only")
	}
}

func TestIfIncomplete_EmptyBriefArraysTriggerRepair(t *testing.T) {
	fake := &fakeCompleter{response: `{"brief_json": {"tldr": ["x"]}}`}
	parsed := map[string]any{
		"brief_json":      map[string]any{"tldr": []any{}, "key_points": []any{}},
		"structured_json": map[string]any{"thesis": "t"},
	}

	IfIncomplete(context.Background(), fake, models.ModeArticle, parsed, testLogger())
	if fake.calls != 1 {
		t.Errorf("empty brief arrays should trigger repair, calls = %d", fake.calls)
	}
}

func TestIfIncomplete_RepairFailureKeepsOriginal(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeCompleter
	}{
		{name: "completion error", fake: &fakeCompleter{err: fmt.Errorf("provider down")}},
		{name: "unparseable repair response", fake: &fakeCompleter{response: "still not json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := map[string]any{"title": "only title"}
			got := IfIncomplete(context.Background(), tt.fake, models.ModeArticle, parsed, testLogger())

			if tt.fake.calls != 1 {
				t.Errorf("calls = %d, want 1", tt.fake.calls)
			}
			if got["title"] != "only title" {
				t.Error("failed repair must return the original object")
			}
			if _, ok := got["brief_json"]; ok {
				t.Error("failed repair must not add sections")
			}
		})
	}
}

func TestIfIncomplete_NeverSecondRound(t *testing.T) {
	// The repair response is itself incomplete; there is still only one call.
	fake := &fakeCompleter{response: `{"note": "still incomplete"}`}
	parsed := map[string]any{}

	IfIncomplete(context.Background(), fake, models.ModeArticle, parsed, testLogger())
	if fake.calls != 1 {
		t.Errorf("calls = %d, want exactly 1 regardless of repair quality", fake.calls)
	}
}
