package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	checkCacheFile = "last_update_check.json"
	checkCacheTTL  = 24 * time.Hour
	watchInterval  = 5 * time.Minute
)

// Checker talks to the GitHub releases API. The zero base URL means the
// real api.github.com; tests point it at a local server.
type Checker struct {
	APIBase string
	Client  *http.Client
}

func NewChecker() *Checker {
	return &Checker{
		APIBase: "https://api.github.com",
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type releasePayload struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name        string `json:"name"`
		DownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Latest returns the newest published release if it is newer than
// current, or nil when already up to date. A dev build always reports
// up to date.
func (c *Checker) Latest(current string) (*Release, error) {
	if current == "dev" {
		return nil, nil
	}

	req, err := http.NewRequest("GET", c.APIBase+"/repos/"+releaseRepo+"/releases/latest", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api: %s", resp.Status)
	}

	var payload releasePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	rel := Release{Tag: payload.TagName}
	want := platformAsset()
	for _, a := range payload.Assets {
		switch a.Name {
		case want:
			rel.BinaryURL = a.DownloadURL
		case "checksums.txt":
			rel.SumsURL = a.DownloadURL
		}
	}
	if rel.BinaryURL == "" {
		return nil, fmt.Errorf("release %s has no asset %q", payload.TagName, want)
	}
	if !rel.NewerThan(current) {
		return nil, nil
	}
	return &rel, nil
}

type checkRecord struct {
	Tag       string `json:"tag"`
	BinaryURL string `json:"binary_url"`
	SumsURL   string `json:"sums_url"`
	CheckedAt int64  `json:"checked_at"`
}

func readCheckCache(dir string) (*Release, bool) {
	data, err := os.ReadFile(filepath.Join(dir, checkCacheFile))
	if err != nil {
		return nil, false
	}
	var rec checkRecord
	if json.Unmarshal(data, &rec) != nil {
		return nil, false
	}
	if time.Since(time.Unix(rec.CheckedAt, 0)) > checkCacheTTL {
		return nil, false
	}
	if rec.Tag == "" {
		// A recent check that found nothing is itself worth caching.
		return nil, true
	}
	return &Release{Tag: rec.Tag, BinaryURL: rec.BinaryURL, SumsURL: rec.SumsURL}, true
}

func writeCheckCache(dir string, rel *Release) {
	rec := checkRecord{CheckedAt: time.Now().Unix()}
	if rel != nil {
		rec.Tag = rel.Tag
		rec.BinaryURL = rel.BinaryURL
		rec.SumsURL = rel.SumsURL
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = os.MkdirAll(dir, 0755)
	_ = os.WriteFile(filepath.Join(dir, checkCacheFile), data, 0644)
}

// LatestCached is Latest behind a 24h on-disk cache, so background
// polling does not hammer the API.
func (c *Checker) LatestCached(current, cacheDir string) (*Release, error) {
	if current == "dev" {
		return nil, nil
	}
	if rel, ok := readCheckCache(cacheDir); ok {
		return rel, nil
	}
	rel, err := c.Latest(current)
	if err != nil {
		return nil, err
	}
	writeCheckCache(cacheDir, rel)
	return rel, nil
}

// Watch polls for a newer release in the background and invokes notify
// when one appears. Errors are swallowed; the next tick retries.
func (c *Checker) Watch(current, cacheDir string, notify func(Release)) {
	if current == "dev" {
		return
	}
	go func() {
		for {
			if rel, err := c.LatestCached(current, cacheDir); err == nil && rel != nil {
				notify(*rel)
			}
			time.Sleep(watchInterval)
		}
	}()
}
