package snpedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Index is the set of rsids that have a SNPedia page, crawled from the
// wiki's "Is a snp" category. Input files hold hundreds of thousands of
// calls with no page at all; pre-filtering against the index avoids
// spending the fetch budget on guaranteed not-founds.
type Index struct {
	rsids map[string]struct{}
}

// Has reports whether the identifier has a SNPedia page.
func (idx *Index) Has(rsid string) bool {
	_, ok := idx.rsids[strings.ToLower(rsid)]
	return ok
}

// Len returns the number of indexed identifiers.
func (idx *Index) Len() int {
	return len(idx.rsids)
}

// IndexLoader fetches and caches the SNPedia page index.
type IndexLoader struct {
	baseURL    string
	httpClient *http.Client
	cachePath  string
	logger     *zap.Logger
}

// NewIndexLoader creates a loader that caches the crawled index as JSON
// under dataDir.
func NewIndexLoader(dataDir string, opts ...IndexOption) *IndexLoader {
	l := &IndexLoader{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		cachePath:  filepath.Join(dataDir, "approved.json"),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IndexOption configures an IndexLoader.
type IndexOption func(*IndexLoader)

// WithIndexBaseURL overrides the MediaWiki API endpoint (used by tests).
func WithIndexBaseURL(url string) IndexOption {
	return func(l *IndexLoader) { l.baseURL = url }
}

// WithIndexLogger sets the loader's logger.
func WithIndexLogger(logger *zap.Logger) IndexOption {
	return func(l *IndexLoader) { l.logger = logger }
}

// Load returns the cached index, crawling the wiki on first use.
func (l *IndexLoader) Load(ctx context.Context) (*Index, error) {
	if idx, err := l.loadCache(); err == nil {
		return idx, nil
	}

	l.logger.Info("no cached page index, crawling snpedia category (one-time setup)")
	rsids, err := l.crawl(ctx)
	if err != nil {
		return nil, err
	}

	if err := l.saveCache(rsids); err != nil {
		l.logger.Warn("could not cache page index", zap.Error(err))
	}

	return NewIndex(rsids), nil
}

func (l *IndexLoader) loadCache() (*Index, error) {
	data, err := os.ReadFile(l.cachePath)
	if err != nil {
		return nil, err
	}
	var rsids []string
	if err := json.Unmarshal(data, &rsids); err != nil {
		return nil, fmt.Errorf("decode index cache: %w", err)
	}
	return NewIndex(rsids), nil
}

func (l *IndexLoader) saveCache(rsids []string) error {
	if err := os.MkdirAll(filepath.Dir(l.cachePath), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(rsids)
	if err != nil {
		return err
	}
	return os.WriteFile(l.cachePath, data, 0644)
}

// crawl pages through the MediaWiki categorymembers API until the continue
// token runs out.
func (l *IndexLoader) crawl(ctx context.Context) ([]string, error) {
	var rsids []string
	cont := ""

	for page := 0; ; page++ {
		members, next, err := l.fetchCategoryPage(ctx, cont)
		if err != nil {
			return nil, fmt.Errorf("crawl page index (page %d): %w", page, err)
		}
		rsids = append(rsids, members...)

		if page%20 == 0 {
			l.logger.Info("crawling page index",
				zap.Int("pages", page+1), zap.Int("rsids", len(rsids)))
		}
		if next == "" {
			break
		}
		cont = next
	}

	l.logger.Info("page index crawl complete", zap.Int("rsids", len(rsids)))
	return rsids, nil
}

func (l *IndexLoader) fetchCategoryPage(ctx context.Context, cont string) ([]string, string, error) {
	params := url.Values{
		"action":  {"query"},
		"list":    {"categorymembers"},
		"cmtitle": {"Category:Is_a_snp"},
		"cmlimit": {"500"},
		"format":  {"json"},
	}
	if cont != "" {
		params.Set("cmcontinue", cont)
	}

	reqURL := fmt.Sprintf("%s/api.php?%s", l.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("http status %d", resp.StatusCode)
	}

	var payload struct {
		Continue struct {
			CmContinue string `json:"cmcontinue"`
		} `json:"continue"`
		Query struct {
			CategoryMembers []struct {
				Title string `json:"title"`
			} `json:"categorymembers"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("decode categorymembers response: %w", err)
	}

	members := make([]string, 0, len(payload.Query.CategoryMembers))
	for _, m := range payload.Query.CategoryMembers {
		members = append(members, strings.ToLower(m.Title))
	}
	return members, payload.Continue.CmContinue, nil
}

// NewIndex builds an Index from a list of rsids, lowercasing each.
func NewIndex(rsids []string) *Index {
	set := make(map[string]struct{}, len(rsids))
	for _, rsid := range rsids {
		set[strings.ToLower(rsid)] = struct{}{}
	}
	return &Index{rsids: set}
}
