package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/screener/internal/contracts"
)

// Artifact names a published result: <prefix>_<suffix>
type Artifact struct {
	Prefix string
	Suffix string
}

// Name returns prefix_suffix
func (a Artifact) Name() string {
	if a.Suffix == "" {
		return a.Prefix
	}
	return a.Prefix + "_" + a.Suffix
}

// DatedFile returns <prefix>_<suffix>_<YYYY-MM-DD>.json
func (a Artifact) DatedFile(asOf string) string {
	return fmt.Sprintf("%s_%s.json", a.Name(), asOf)
}

// LatestFile returns <prefix>_<suffix>_latest.json
func (a Artifact) LatestFile() string {
	return fmt.Sprintf("%s_latest.json", a.Name())
}

// MarketPrefix is the lower-case market used as a file prefix (kospi, kosdaq)
func MarketPrefix(m contracts.Market) string {
	return strings.ToLower(string(m))
}

// Publication is one rendered result ready for the sinks
type Publication struct {
	Artifact Artifact
	Result   *contracts.ScreenResult
	Envelope *Envelope
	Body     []byte
}

// NewPublication renders res with opts
func NewPublication(a Artifact, res *contracts.ScreenResult, opts Options) (*Publication, error) {
	env := Build(res, opts)
	body, err := Marshal(env)
	if err != nil {
		return nil, err
	}
	return &Publication{
		Artifact: a,
		Result:   res,
		Envelope: env,
		Body:     body,
	}, nil
}

// Sink stores a publication and reports where it went
type Sink interface {
	Publish(ctx context.Context, pub *Publication) ([]string, error)
}

// FileSink writes the dated and latest JSON files into Dir.
// Identical publications produce byte-identical files.
type FileSink struct {
	Dir string
}

// NewFileSink creates a file sink rooted at dir
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Publish writes both files (dated first, then latest)
func (s *FileSink) Publish(ctx context.Context, pub *Publication) ([]string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := []string{
		filepath.Join(s.Dir, pub.Artifact.DatedFile(pub.Envelope.AsOf)),
		filepath.Join(s.Dir, pub.Artifact.LatestFile()),
	}
	for _, path := range paths {
		if err := writeFile(path, pub.Body); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// writeFile replaces path atomically via a temp file in the same directory
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// MultiSink fans a publication out to several sinks in order.
// The first failure stops the fan-out.
type MultiSink []Sink

// Publish runs every sink and collects the locations
func (m MultiSink) Publish(ctx context.Context, pub *Publication) ([]string, error) {
	var all []string
	for _, s := range m {
		locs, err := s.Publish(ctx, pub)
		if err != nil {
			return all, err
		}
		all = append(all, locs...)
	}
	return all, nil
}
