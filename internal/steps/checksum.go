// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/release"
)

// ChecksumDir is the directory, inside the output directory, holding checksum files.
const ChecksumDir = "checksums"

// Checksum writes one checksums_<algorithm>.txt file per configured algorithm.
type Checksum struct {
	rc *release.Context
}

func (s *Checksum) Command() string { return ChecksumCommand }

func (s *Checksum) Invoke(ctx context.Context) error {
	m := s.rc.Model()
	log := s.rc.Log()
	if len(m.Artifacts) == 0 {
		log.Info("no artifacts configured")
		return nil
	}

	sums := make(map[string][]string, len(m.Checksum.Algorithms))
	for _, a := range m.Artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := a.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.rc.BaseDir(), path)
		}
		digests, err := digest(path, m.Checksum.Algorithms)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("checksum artifact").
				WithResource(a.Path).
				WithIssue(issue.StepFailedId).
				WithSuggestion("Build the artifacts before running checksum").
				Wrap(err).
				BuildError()
		}
		for _, algo := range m.Checksum.Algorithms {
			sums[algo] = append(sums[algo], fmt.Sprintf("%s  %s", digests[algo], model.ArtifactFile(a.Path)))
		}
		log.Debug("checksummed", "artifact", a.Path)
	}

	dir := filepath.Join(s.rc.OutputDir(), ChecksumDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checksum directory: %w", err)
	}
	for _, algo := range m.Checksum.Algorithms {
		path := filepath.Join(dir, "checksums_"+algo+".txt")
		content := strings.Join(sums[algo], "\n") + "\n"
		if err := renameio.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		s.rc.AddOutput(ChecksumCommand, path)
		log.Info("checksums written", "algorithm", algo, "path", path)
	}
	return nil
}

// digest hashes the file at path once for every algorithm.
func digest(path string, algorithms []string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hashes := make(map[string]hash.Hash, len(algorithms))
	writers := make([]io.Writer, 0, len(algorithms))
	for _, algo := range algorithms {
		h, err := newHash(algo)
		if err != nil {
			return nil, err
		}
		hashes[algo] = h
		writers = append(writers, h)
	}
	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	out := make(map[string]string, len(hashes))
	for algo, h := range hashes {
		out[algo] = hex.EncodeToString(h.Sum(nil))
	}
	return out, nil
}

func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case model.ChecksumSHA256:
		return sha256.New(), nil
	case model.ChecksumSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algo)
	}
}
