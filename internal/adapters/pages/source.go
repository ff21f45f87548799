package pages

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	perr "queststat/internal/platform/errors"
	"queststat/internal/platform/logger"
)

// DefaultMaxBytes caps a single page
const DefaultMaxBytes = 32 * 1024 * 1024

const sampleMax = 256

// Source opens a page by name
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Dir serves pages from a directory. Absolute names are opened as is
type Dir struct {
	Root     string
	MaxBytes int64
}

// Open returns the page body, gunzipped when the name ends in .gz
func (d Dir) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := name
	if !filepath.IsAbs(path) && d.Root != "" {
		path = filepath.Join(d.Root, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeIO, "open page %s", name), "page")
	}
	if !strings.HasSuffix(name, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		if cerr := f.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeIO, "gunzip page %s", name), "page")
	}
	return &gzipFile{f: f, gz: gz}, nil
}

type gzipFile struct {
	f  *os.File
	gz *gzip.Reader
}

func (g *gzipFile) Read(p []byte) (int, error) { return g.gz.Read(p) }

// Close closes both layers and reports the first failure
func (g *gzipFile) Close() error {
	first := g.gz.Close()
	if err := g.f.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Read loads a whole page through src, enforcing max (DefaultMaxBytes when <= 0)
func Read(ctx context.Context, src Source, name string, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	b, err := io.ReadAll(io.LimitReader(rc, max+1))
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeIO, "read page %s", name), "page")
	}
	if int64(len(b)) > max {
		return nil, perr.WithField(perr.IOf("page %s exceeds %d bytes", name, max), "page")
	}

	logger.C(ctx).Debug().
		Str("page", name).
		Int("bytes", len(b)).
		Str("sample", truncateUTF8(b, sampleMax)).
		Msg("pages: loaded")
	return b, nil
}

var pageNumRe = regexp.MustCompile(`(\d+)\D*$`)

// Sort orders page names by their trailing page number, so page-2 comes
// before page-10; names without a number sort first, by name
func Sort(names []string) []string {
	out := slices.Clone(names)
	slices.SortStableFunc(out, func(a, b string) int {
		na, oka := pageNum(a)
		nb, okb := pageNum(b)
		switch {
		case oka && okb && na != nb:
			return na - nb
		case oka != okb:
			if oka {
				return 1
			}
			return -1
		}
		return strings.Compare(a, b)
	})
	return out
}

// Glob lists the pages in dir matching pattern, in page order. Names are
// relative to dir so they can be handed to a Dir rooted there
func Glob(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "bad page pattern"), "pattern")
	}
	if dir != "" {
		for i, m := range matches {
			if rel, err := filepath.Rel(dir, m); err == nil {
				matches[i] = rel
			}
		}
	}
	return Sort(matches), nil
}

func pageNum(name string) (int, bool) {
	m := pageNumRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// truncateUTF8 returns b cut to at most max bytes on a rune boundary, with an
// ellipsis when cut
func truncateUTF8(b []byte, max int) string {
	if max <= 0 || len(b) <= max {
		return string(b)
	}
	i := max
	for i > 0 && (b[i]&0xC0) == 0x80 {
		i--
	}
	if i <= 0 {
		i = max
	}
	return string(b[:i]) + "..."
}
