package update

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    [3]int
		wantErr bool
	}{
		{"1.2.3", [3]int{1, 2, 3}, false},
		{"v0.1.5", [3]int{0, 1, 5}, false},
		{"v1.0.0-dirty", [3]int{1, 0, 0}, false},
		{"v2.3.4-rc1+build", [3]int{2, 3, 4}, false},
		{"dev", [3]int{}, true},
		{"", [3]int{}, true},
		{"1.2", [3]int{}, true},
	}
	for _, tt := range tests {
		got, err := parseVersion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseVersion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReleaseNewerThan(t *testing.T) {
	tests := []struct {
		tag     string
		current string
		want    bool
	}{
		{"v0.2.0", "v0.1.5", true},
		{"v0.1.5", "v0.1.5", false},
		{"v0.1.4", "v0.1.5", false},
		{"v1.0.0", "v0.9.9", true},
		{"v0.1.6", "v0.1.5-dirty", true},
		{"v0.1.5", "dev", false},
		{"invalid", "v0.1.5", false},
	}
	for _, tt := range tests {
		r := Release{Tag: tt.tag}
		if got := r.NewerThan(tt.current); got != tt.want {
			t.Errorf("Release{%q}.NewerThan(%q) = %v, want %v", tt.tag, tt.current, got, tt.want)
		}
	}
}

func TestCheckerLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/"+releaseRepo+"/releases/latest" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"tag_name":"v9.9.9","assets":[
			{"name":%q,"browser_download_url":"http://x/bin"},
			{"name":"checksums.txt","browser_download_url":"http://x/sums"}]}`, platformAsset())
	}))
	defer srv.Close()

	c := NewChecker()
	c.APIBase = srv.URL

	rel, err := c.Latest("v0.1.0")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if rel == nil || rel.Tag != "v9.9.9" || rel.BinaryURL != "http://x/bin" || rel.SumsURL != "http://x/sums" {
		t.Errorf("unexpected release: %+v", rel)
	}

	rel, err = c.Latest("v9.9.9")
	if err != nil {
		t.Fatalf("Latest (up to date): %v", err)
	}
	if rel != nil {
		t.Errorf("expected nil release when current, got %+v", rel)
	}

	if rel, _ := c.Latest("dev"); rel != nil {
		t.Error("dev build should never see an update")
	}
}

func TestPublishedSum(t *testing.T) {
	sums := fmt.Sprintf("aaaa1111  other_file\nbbbb2222  %s\n", platformAsset())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sums)
	}))
	defer srv.Close()

	c := NewChecker()
	got, err := c.publishedSum(srv.URL, platformAsset())
	if err != nil {
		t.Fatalf("publishedSum: %v", err)
	}
	if got != "bbbb2222" {
		t.Errorf("sum = %q, want %q", got, "bbbb2222")
	}
	if _, err := c.publishedSum(srv.URL, "missing_file"); err == nil {
		t.Error("expected error for asset absent from checksums")
	}
}
