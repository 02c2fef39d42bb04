package catalog

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// setupTestFiles creates temporary catalog files and returns their paths
func setupTestFiles(t *testing.T) (string, string) {
	t.Helper()

	tmpDir := t.TempDir()
	file1 := filepath.Join(tmpDir, "coupons1.txt")
	file2 := filepath.Join(tmpDir, "coupons2.txt.gz")

	if err := os.WriteFile(file1, []byte("# seasonal\nSPRING10,10\nsummer15, 15\n\nSHARED,5\n"), 0644); err != nil {
		t.Fatalf("failed to create test file 1: %v", err)
	}

	f, err := os.Create(file2)
	if err != nil {
		t.Fatalf("failed to create test file 2: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("SHARED,25\nWINTER20,20.5\n")); err != nil {
		t.Fatalf("failed to write gzip data: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}

	return file1, file2
}

func TestCoupons_LoadFiles(t *testing.T) {
	t.Run("successful load from multiple files", func(t *testing.T) {
		file1, file2 := setupTestFiles(t)

		c := NewCoupons()
		if err := c.Load(context.Background(), nil, []string{file1, file2}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		coupons := c.All()
		if len(coupons) != 4 {
			t.Fatalf("expected 4 coupons, got %d", len(coupons))
		}

		byCode := make(map[string]string)
		for _, coupon := range coupons {
			byCode[coupon.Code] = coupon.Discount.String()
			if coupon.ID == "" {
				t.Errorf("coupon %s has empty id", coupon.Code)
			}
		}

		expected := map[string]string{
			"SPRING10": "10",
			"SUMMER15": "15",
			"SHARED":   "5",
			"WINTER20": "20.5",
		}
		for code, discount := range expected {
			if byCode[code] != discount {
				t.Errorf("coupon %s discount = %q, want %q", code, byCode[code], discount)
			}
		}

		stats := c.GetStats()
		if stats["total_sources"] != 2 {
			t.Errorf("expected 2 sources, got %v", stats["total_sources"])
		}
		if stats["total_coupons"] != 4 {
			t.Errorf("expected 4 coupons, got %v", stats["total_coupons"])
		}
	})

	t.Run("empty file paths", func(t *testing.T) {
		c := NewCoupons()
		if err := c.Load(context.Background(), nil, []string{}); err != ErrNoSources {
			t.Errorf("expected ErrNoSources, got %v", err)
		}
	})

	t.Run("non-existent file", func(t *testing.T) {
		c := NewCoupons()
		if err := c.Load(context.Background(), nil, []string{"/non/existent/file.txt"}); err == nil {
			t.Error("expected error for non-existent file, got nil")
		}
	})

	t.Run("malformed record", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.txt")
		if err := os.WriteFile(path, []byte("GOOD,10\nNODISCOUNT\n"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}

		c := NewCoupons()
		if err := c.Load(context.Background(), nil, []string{path}); err == nil {
			t.Error("expected error for malformed record, got nil")
		}
		if len(c.All()) != 0 {
			t.Error("failed load must not replace the catalog")
		}
	})
}

func TestCoupons_StableIDs(t *testing.T) {
	file1, file2 := setupTestFiles(t)

	a := NewCoupons()
	b := NewCoupons()
	if err := a.Load(context.Background(), nil, []string{file1, file2}); err != nil {
		t.Fatalf("load a: %v", err)
	}
	if err := b.Load(context.Background(), nil, []string{file2, file1}); err != nil {
		t.Fatalf("load b: %v", err)
	}

	ids := make(map[string]string)
	for _, coupon := range a.All() {
		ids[coupon.Code] = coupon.ID
	}
	for _, coupon := range b.All() {
		if ids[coupon.Code] != coupon.ID {
			t.Errorf("coupon %s id differs between loads", coupon.Code)
		}
	}
}

func TestCoupons_LoadURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.gz":
			gz := gzip.NewWriter(w)
			_, _ = gz.Write([]byte("GZCODE,12\n"))
			_ = gz.Close()
		case "/b.txt":
			_, _ = w.Write([]byte("PLAIN,8\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("loads plain and gzipped sources", func(t *testing.T) {
		c := NewCoupons()
		err := c.Load(context.Background(), []string{srv.URL + "/a.gz", srv.URL + "/b.txt"}, nil)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		codes := c.Codes()
		if len(codes) != 2 || codes[0] != "GZCODE" || codes[1] != "PLAIN" {
			t.Errorf("unexpected codes %v", codes)
		}
	})

	t.Run("missing source fails the load", func(t *testing.T) {
		c := NewCoupons()
		if err := c.Load(context.Background(), []string{srv.URL + "/missing"}, nil); err == nil {
			t.Error("expected error for 404 source, got nil")
		}
	})
}

func TestCoupons_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("REMOTE,7\nSPRING10,99\n"))
	}))
	defer srv.Close()

	file1, _ := setupTestFiles(t)

	c := NewCoupons()
	if err := c.Load(context.Background(), []string{srv.URL + "/remote.txt"}, []string{file1}); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	byCode := make(map[string]string)
	for _, coupon := range c.All() {
		byCode[coupon.Code] = coupon.Discount.String()
	}
	if byCode["REMOTE"] != "7" {
		t.Errorf("REMOTE discount = %q, want 7", byCode["REMOTE"])
	}
	if byCode["SPRING10"] != "99" {
		t.Errorf("URL sources come first, SPRING10 discount = %q, want 99", byCode["SPRING10"])
	}
	if len(c.All()) != 4 {
		t.Errorf("expected 4 coupons, got %d", len(c.All()))
	}
}
