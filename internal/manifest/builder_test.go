package manifest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"loopfetch/internal/feed"
	"loopfetch/internal/logging"
	"loopfetch/internal/testsupport"
)

type feedFixture struct {
	server  *httptest.Server
	mux     *http.ServeMux
	builder *Builder
	catalog *feed.Catalog
}

func newFeedFixture(t *testing.T, catalogFeeds map[string]map[string][]string, years []string) *feedFixture {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	originBase := server.URL + "/lp10_ms3_content_"
	resolver, err := NewResolver(originBase, "")
	if err != nil {
		t.Fatal(err)
	}

	client := feed.NewClient("loopfetch/test", logging.NewNop())
	builder := NewBuilder(client, resolver, server.URL+"/mirror/lp10_ms3_content_", logging.NewNop())

	return &feedFixture{
		server:  server,
		mux:     mux,
		builder: builder,
		catalog: &feed.Catalog{LoopFeeds: catalogFeeds, LoopYears: years},
	}
}

func (f *feedFixture) serveSubFeed(year, file string, body []byte) {
	f.mux.HandleFunc("/lp10_ms3_content_"+year+"/"+file, func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	})
}

func (f *feedFixture) servePackage(path string, payload []byte) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})
}

func TestBuildResolvesPackages(t *testing.T) {
	fixture := newFeedFixture(t, map[string]map[string][]string{
		"garageband": {"2016": {"garageband1012.plist"}},
	}, []string{"2016"})

	fixture.serveSubFeed("2016", "garageband1012.plist", testsupport.SubFeedPlist(t,
		testsupport.SubFeedEntry{ID: "Core", Name: "core.pkg", Mandatory: true, Size: 100},
		testsupport.SubFeedEntry{ID: "Extra", Name: "extra.pkg", Size: 200},
	))
	fixture.servePackage("/lp10_ms3_content_2016/core.pkg", bytes.Repeat([]byte("a"), 128))
	fixture.servePackage("/lp10_ms3_content_2016/extra.pkg", bytes.Repeat([]byte("b"), 256))

	m, err := fixture.builder.Build(context.Background(), fixture.catalog, Selection{
		Products: []string{"garageband"},
		Years:    []string{"2016"},
	})
	if err != nil {
		t.Fatal(err)
	}

	pkgs := m.Packages()
	if len(pkgs) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(pkgs), pkgs)
	}

	core := pkgs[0]
	if core.Name != "core.pkg" || !core.Mandatory {
		t.Fatalf("first entry = %+v", core)
	}
	// Live transfer length wins over the declared size.
	if core.Size != 128 {
		t.Fatalf("core size = %d, want 128 (probed)", core.Size)
	}
	if core.Year != "2016" || core.ProductFamily != "garageband" || core.SourceFeed != "garageband1012" {
		t.Fatalf("core metadata = %+v", core)
	}

	if pkgs[1].Name != "extra.pkg" || pkgs[1].Mandatory || pkgs[1].Size != 256 {
		t.Fatalf("second entry = %+v", pkgs[1])
	}
}

func TestBuildFilterCorrectness(t *testing.T) {
	subFeed := testsupport.SubFeedPlist(t,
		testsupport.SubFeedEntry{ID: "Core", Name: "core.pkg", Mandatory: true, Size: 100},
		testsupport.SubFeedEntry{ID: "Extra", Name: "extra.pkg", Size: 200},
	)

	build := func(t *testing.T, filter Filter) *Manifest {
		fixture := newFeedFixture(t, map[string]map[string][]string{
			"garageband": {"2016": {"garageband1012.plist"}},
		}, []string{"2016"})
		fixture.serveSubFeed("2016", "garageband1012.plist", subFeed)

		m, err := fixture.builder.Build(context.Background(), fixture.catalog, Selection{
			Products: []string{"garageband"},
			Years:    []string{"2016"},
			Filter:   filter,
		})
		if err != nil {
			t.Fatal(err)
		}
		return m
	}

	mandatoryOnly := build(t, FilterMandatory)
	for _, pkg := range mandatoryOnly.Packages() {
		if !pkg.Mandatory {
			t.Fatalf("mandatory-only manifest contains optional %+v", pkg)
		}
	}
	if mandatoryOnly.Len() != 1 {
		t.Fatalf("mandatory len = %d", mandatoryOnly.Len())
	}

	optionalOnly := build(t, FilterOptional)
	for _, pkg := range optionalOnly.Packages() {
		if pkg.Mandatory {
			t.Fatalf("optional-only manifest contains mandatory %+v", pkg)
		}
	}
	if optionalOnly.Len() != 1 {
		t.Fatalf("optional len = %d", optionalOnly.Len())
	}

	all := build(t, FilterAll)
	if all.Len() != mandatoryOnly.Len()+optionalOnly.Len() {
		t.Fatalf("unfiltered manifest is not the union: %d", all.Len())
	}
}

func TestBuildUniqueness(t *testing.T) {
	fixture := newFeedFixture(t, map[string]map[string][]string{
		// The same sub-feed listed twice produces field-wise identical
		// records; only one may survive.
		"garageband": {"2016": {"garageband1012.plist", "garageband1012.plist"}},
	}, []string{"2016"})

	fixture.serveSubFeed("2016", "garageband1012.plist", testsupport.SubFeedPlist(t,
		testsupport.SubFeedEntry{ID: "Core", Name: "core.pkg", Mandatory: true, Size: 100},
	))

	m, err := fixture.builder.Build(context.Background(), fixture.catalog, Selection{
		Products: []string{"garageband"},
		Years:    []string{"2016"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d, want 1", m.Len())
	}
}

func TestBuildSizeProbeFallback(t *testing.T) {
	fixture := newFeedFixture(t, map[string]map[string][]string{
		"garageband": {"2016": {"garageband1012.plist"}},
	}, []string{"2016"})

	fixture.serveSubFeed("2016", "garageband1012.plist", testsupport.SubFeedPlist(t,
		testsupport.SubFeedEntry{ID: "Core", Name: "core.pkg", Size: "52.428.800"},
	))
	// No handler for core.pkg: the HEAD probe 404s and the declared size
	// must be used, punctuation stripped.

	m, err := fixture.builder.Build(context.Background(), fixture.catalog, Selection{
		Products: []string{"garageband"},
		Years:    []string{"2016"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d", m.Len())
	}
	if got := m.Packages()[0].Size; got != 52_428_800 {
		t.Fatalf("size = %d, want 52428800", got)
	}
}

func TestBuildExplicitFiles(t *testing.T) {
	fixture := newFeedFixture(t, map[string]map[string][]string{
		"garageband": {"2016": {"garageband1012.plist", "garageband1013.plist"}},
	}, []string{"2016"})

	fixture.serveSubFeed("2016", "garageband1012.plist", testsupport.SubFeedPlist(t,
		testsupport.SubFeedEntry{ID: "Core", Name: "core.pkg", Size: 100},
	))
	fixture.serveSubFeed("2016", "garageband1013.plist", testsupport.SubFeedPlist(t,
		testsupport.SubFeedEntry{ID: "Other", Name: "other.pkg", Size: 100},
	))

	m, err := fixture.builder.Build(context.Background(), fixture.catalog, Selection{
		Products: []string{"garageband"},
		Years:    []string{"2016"},
		Files:    []string{"garageband1013.plist"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 || m.Packages()[0].Name != "other.pkg" {
		t.Fatalf("packages = %+v", m.Packages())
	}
}

func TestBuildLegacyEntry(t *testing.T) {
	fixture := newFeedFixture(t, map[string]map[string][]string{
		"garageband": {"2016": {"garageband1012.plist"}},
	}, []string{"2016"})

	fixture.serveSubFeed("2016", "garageband1012.plist", testsupport.SubFeedPlist(t,
		testsupport.SubFeedEntry{ID: "Old", Name: "../lp10_ms3_content_2013/old.pkg", Size: 100},
	))

	m, err := fixture.builder.Build(context.Background(), fixture.catalog, Selection{
		Products: []string{"garageband"},
		Years:    []string{"2016"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d", m.Len())
	}

	pkg := m.Packages()[0]
	if pkg.Name != "old.pkg" {
		t.Fatalf("name = %q", pkg.Name)
	}
	if pkg.Year != "2013" {
		t.Fatalf("year = %q, want 2013 (re-derived from legacy URL)", pkg.Year)
	}
	if pkg.URL != fixture.server.URL+"/lp10_ms3_content_2013/old.pkg" {
		t.Fatalf("url = %q", pkg.URL)
	}
}

func TestBuildSkipsBrokenSubFeed(t *testing.T) {
	fixture := newFeedFixture(t, map[string]map[string][]string{
		"garageband": {"2016": {"broken.plist", "garageband1012.plist"}},
	}, []string{"2016"})

	// broken.plist has no handler anywhere: primary and mirror both 404.
	fixture.serveSubFeed("2016", "garageband1012.plist", testsupport.SubFeedPlist(t,
		testsupport.SubFeedEntry{ID: "Core", Name: "core.pkg", Size: 100},
	))

	m, err := fixture.builder.Build(context.Background(), fixture.catalog, Selection{
		Products: []string{"garageband"},
		Years:    []string{"2016"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 || m.Packages()[0].Name != "core.pkg" {
		t.Fatalf("packages = %+v", m.Packages())
	}
}
