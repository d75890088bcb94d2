package output

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/use-agent/aniscrape/models"
)

func strPtr(s string) *string { return &s }

func TestWriteJSON_RoundTrip(t *testing.T) {
	in := models.HomepageData{
		Spotlight: []models.AnimeSummary{{
			Title:       "進撃の巨人 & <Friends>",
			Description: models.NoDescription,
			WatchURL:    "https://aniwatch.example/watch/demo-1",
			ImageURL:    "https://cdn.example/demo.jpg",
			StreamURL:   strPtr("https://provider.example/embed/1?a=1&b=2"),
		}},
		LatestEpisodes: []models.AnimeSummary{{
			Title:    "Demo Ep",
			WatchURL: "https://aniwatch.example/demo-ep-1",
		}},
	}

	path := filepath.Join(t.TempDir(), StaticFile)
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out models.HomepageData
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestWriteJSON_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", HomepageFile)
	data := models.HomepageData{
		Spotlight:      []models.AnimeSummary{{Title: "進撃 <b>", WatchURL: "https://x.example/watch/a"}},
		LatestEpisodes: []models.AnimeSummary{},
	}
	if err := WriteJSON(path, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(raw)

	if !strings.Contains(text, `"title": "進撃 <b>"`) {
		t.Errorf("non-ASCII or HTML characters were escaped:\n%s", text)
	}
	if !strings.Contains(text, "\n  \"spotlight\": [") {
		t.Errorf("expected two-space indentation:\n%s", text)
	}
	if !strings.Contains(text, `"stream_url": null`) {
		t.Errorf("unresolved stream must serialise as null:\n%s", text)
	}
	if !strings.Contains(text, `"latest_episodes": []`) {
		t.Errorf("empty section must serialise as []:\n%s", text)
	}
	if strings.Contains(text, `"description"`) {
		t.Errorf("empty description must be omitted:\n%s", text)
	}
}

func TestWriteJSON_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), CatalogFile)
	if err := WriteJSON(path, models.Catalog{{Title: "Old"}, {Title: "Older"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(path, models.Catalog{{Title: "New"}}); err != nil {
		t.Fatal(err)
	}

	var got models.Catalog
	if err := ReadJSON(path, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "New" {
		t.Errorf("file not replaced: %+v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestReadJSON_Missing(t *testing.T) {
	var v models.Catalog
	if err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &v); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
