// Package version reports the build version and checks GitHub for a newer
// release.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

const (
	githubRepo   = "HendryAvila/devctx"
	releaseURL   = "https://api.github.com/repos/" + githubRepo + "/releases/latest"
	checkTimeout = 10 * time.Second
)

// For testing: allow overriding the release URL and HTTP client.
var (
	releaseEndpoint = releaseURL
	httpClient      = &http.Client{Timeout: checkTimeout}
)

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckResult is the outcome of Check.
type CheckResult struct {
	Current         string `json:"current"`
	Latest          string `json:"latest,omitempty"`
	UpdateAvailable bool   `json:"update_available"`
	ReleaseURL      string `json:"release_url,omitempty"`
}

// Check asks GitHub for the latest release and compares it with current.
func Check(ctx context.Context, current string) (*CheckResult, error) {
	res := &CheckResult{Current: strings.TrimPrefix(current, "v")}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseEndpoint, nil)
	if err != nil {
		return res, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "devctx/"+current)

	resp, err := httpClient.Do(req)
	if err != nil {
		return res, fmt.Errorf("version: query releases: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("version: releases API returned status %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return res, fmt.Errorf("version: decode release: %w", err)
	}

	res.Latest = strings.TrimPrefix(rel.TagName, "v")
	res.ReleaseURL = rel.HTMLURL
	res.UpdateAvailable = Newer(res.Current, res.Latest)
	return res, nil
}

// Newer reports whether latest is a higher major.minor.patch than
// current. Development builds never report an update.
func Newer(current, latest string) bool {
	if current == "" || latest == "" || current == "dev" {
		return false
	}
	c, l := parts(current), parts(latest)
	for i := range c {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

// parts splits v into three numeric components. Missing or non-numeric
// components count as 0; pre-release suffixes are ignored.
func parts(v string) [3]int {
	var out [3]int
	for i, p := range strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3) {
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		out[i], _ = strconv.Atoi(p[:end])
	}
	return out
}
