// Package catalog loads pre-existing coupons from catalog files. Every
// loaded coupon is offered to new sessions alongside gesture-issued ones.
package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// couponNamespace derives stable coupon ids from codes
var couponNamespace = uuid.MustParse("6f1b0c3e-6a43-4c1f-9d8e-2f1e5b7a9c10")

var (
	ErrNoSources     = errors.New("no coupon catalog sources provided")
	ErrInvalidRecord = errors.New("invalid coupon record")
)

// Coupons holds the coupons loaded from one or more catalog sources
type Coupons struct {
	mu      sync.RWMutex
	sources []string
	sizes   []int
	coupons []models.Coupon
}

// sourceResult holds the result of loading a single source
type sourceResult struct {
	index   int
	coupons []models.Coupon
	err     error
}

// NewCoupons creates an empty coupon catalog
func NewCoupons() *Coupons {
	return &Coupons{}
}

// Load reads URLs and files concurrently as one catalog, in that order.
// Sources ending in .gz are decompressed. Any failing source fails the
// whole load.
func (c *Coupons) Load(ctx context.Context, urls, paths []string) error {
	client := &http.Client{Timeout: time.Minute}
	sources := append(append([]string(nil), urls...), paths...)
	return c.load(sources, func(source string) ([]models.Coupon, error) {
		if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
			return loadFromURL(ctx, client, source)
		}
		return loadFromFile(ctx, source)
	})
}

func (c *Coupons) load(sources []string, fetch func(string) ([]models.Coupon, error)) error {
	if len(sources) == 0 {
		return ErrNoSources
	}

	resultChan := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(index int, source string) {
			defer wg.Done()
			coupons, err := fetch(source)
			resultChan <- sourceResult{index: index, coupons: coupons, err: err}
		}(i, src)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results maintaining source order
	results := make([]sourceResult, len(sources))
	for result := range resultChan {
		results[result.index] = result
	}

	for i, result := range results {
		if result.err != nil {
			return errors.Wrapf(result.err, "failed to load coupon source %d", i+1)
		}
	}

	// First occurrence of a code wins
	seen := make(map[string]bool)
	merged := make([]models.Coupon, 0)
	sizes := make([]int, len(results))
	for i, result := range results {
		sizes[i] = len(result.coupons)
		for _, coupon := range result.coupons {
			if seen[coupon.Code] {
				continue
			}
			seen[coupon.Code] = true
			merged = append(merged, coupon)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append([]string(nil), sources...)
	c.sizes = sizes
	c.coupons = merged

	return nil
}

func loadFromURL(ctx context.Context, client *http.Client, url string) ([]models.Coupon, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to download file")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return readSource(ctx, url, resp.Body)
}

func loadFromFile(ctx context.Context, path string) ([]models.Coupon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	return readSource(ctx, path, f)
}

func readSource(ctx context.Context, name string, r io.Reader) ([]models.Coupon, error) {
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create gzip reader")
		}
		defer gz.Close()
		r = gz
	}
	return parseCoupons(ctx, r)
}

// parseCoupons reads "CODE,DISCOUNT" records, one per line. Blank lines and
// lines starting with # are skipped.
func parseCoupons(ctx context.Context, r io.Reader) ([]models.Coupon, error) {
	coupons := make([]models.Coupon, 0)
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		coupon, err := parseRecord(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		coupons = append(coupons, coupon)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading file")
	}

	return coupons, nil
}

func parseRecord(text string) (models.Coupon, error) {
	code, amount, ok := strings.Cut(text, ",")
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ok || code == "" {
		return models.Coupon{}, ErrInvalidRecord
	}

	discount, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || discount.IsNegative() {
		return models.Coupon{}, ErrInvalidRecord
	}

	return models.Coupon{
		ID:       uuid.NewSHA1(couponNamespace, []byte(code)).String(),
		Code:     code,
		Discount: discount,
	}, nil
}

// All returns a copy of the loaded coupons
func (c *Coupons) All() []models.Coupon {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Coupon(nil), c.coupons...)
}

// Codes returns the codes of all loaded coupons
func (c *Coupons) Codes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	codes := make([]string, len(c.coupons))
	for i, coupon := range c.coupons {
		codes[i] = coupon.Code
	}
	return codes
}

// GetStats returns statistics about loaded coupons
func (c *Coupons) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"total_sources": len(c.sources),
		"source_sizes":  append([]int(nil), c.sizes...),
		"total_coupons": len(c.coupons),
	}
}
