package service

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"feature-rollout/entity"
	"feature-rollout/models"
	"feature-rollout/repository"
	"feature-rollout/utils"
)

// DefaultCallPattern matches f.HasFeature(ctx, "name" and f.RunIfFeature(ctx, "name".
// The first submatch is the feature name.
var DefaultCallPattern = regexp.MustCompile(`\.(?:HasFeature|RunIfFeature)\(\s*[^,()]+,\s*"([^"]+)"`)

// maxLine - longest source line the scanner accepts
const maxLine = 1 << 20

// ServiceDiscovery finds feature names referenced from source files.
type ServiceDiscovery struct {
	store       repository.Reader
	patterns    []string
	callPattern *regexp.Regexp
	log         *slog.Logger
}

type DiscoveryOption func(*ServiceDiscovery)

// WithCallPattern replaces DefaultCallPattern; the first submatch must be the feature name.
func WithCallPattern(re *regexp.Regexp) DiscoveryOption {
	return func(sd *ServiceDiscovery) {
		if re != nil {
			sd.callPattern = re
		}
	}
}

func WithDiscoveryLogger(log *slog.Logger) DiscoveryOption {
	return func(sd *ServiceDiscovery) {
		if log != nil {
			sd.log = log
		}
	}
}

// NewServiceDiscovery scans patterns (globs, a directory is scanned recursively).
func NewServiceDiscovery(store repository.Reader, patterns []string, opts ...DiscoveryOption) *ServiceDiscovery {
	sd := &ServiceDiscovery{
		store:       store,
		patterns:    utils.UniqueWords(patterns),
		callPattern: DefaultCallPattern,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(sd)
	}
	return sd
}

// DiscoverFeatures returns persisted and referenced features sorted by name.
// Referenced features that are not persisted come back with Persisted false.
// Unreadable files and malformed patterns are skipped.
func (sd *ServiceDiscovery) DiscoverFeatures(ctx context.Context) ([]entity.DiscoveredFeature, error) {
	lines, err := sd.scan(ctx)
	if err != nil {
		return nil, err
	}

	persisted, err := sd.store.ListFeatures(ctx)
	if err != nil {
		return nil, storageError("feature list", err)
	}

	byName := make(map[string]*entity.DiscoveredFeature, len(persisted)+len(lines))
	for _, feature := range persisted {
		byName[feature.Name] = &entity.DiscoveredFeature{Feature: feature, Persisted: true, Lines: []string{}}
	}
	for name, refs := range lines {
		df, ok := byName[name]
		if !ok {
			df = &entity.DiscoveredFeature{Feature: models.Feature{Name: name}, Lines: []string{}}
			byName[name] = df
		}
		df.Lines = append(df.Lines, refs...)
	}

	out := make([]entity.DiscoveredFeature, 0, len(byName))
	for _, df := range byName {
		out = append(out, *df)
	}
	slices.SortFunc(out, func(a, b entity.DiscoveredFeature) int {
		return cmp.Compare(a.Feature.Name, b.Feature.Name)
	})

	return out, nil
}

// scan maps feature names to path#Ln references
func (sd *ServiceDiscovery) scan(ctx context.Context) (map[string][]string, error) {
	refs := make(map[string][]string)
	seen := make(map[string]struct{})

	for _, pattern := range sd.patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			sd.log.WarnContext(ctx, "discovery: bad pattern", slog.String("pattern", pattern), slog.Any("error", err))
			continue
		}
		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			paths, err := sd.files(ctx, path)
			if err != nil {
				return nil, err
			}
			for _, file := range paths {
				if _, ok := seen[file]; ok {
					continue
				}
				seen[file] = struct{}{}
				if err := sd.scanFile(file, refs); err != nil {
					sd.log.WarnContext(ctx, "discovery: skip file", slog.String("path", file), slog.Any("error", err))
				}
			}
		}
	}

	return refs, nil
}

// files expands a directory into the regular files below it
func (sd *ServiceDiscovery) files(ctx context.Context, path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		sd.log.WarnContext(ctx, "discovery: skip path", slog.String("path", path), slog.Any("error", err))
		return nil, nil
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() {
			return []string{path}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			sd.log.WarnContext(ctx, "discovery: skip path", slog.String("path", p), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (sd *ServiceDiscovery) scanFile(path string, refs map[string][]string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// a file that fails midway contributes nothing
	local := make(map[string][]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for n := 1; scanner.Scan(); n++ {
		for _, m := range sd.callPattern.FindAllStringSubmatch(scanner.Text(), -1) {
			if len(m) < 2 || m[1] == "" {
				continue
			}
			local[m[1]] = append(local[m[1]], fmt.Sprintf("%s#L%d", path, n))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for name, lines := range local {
		refs[name] = append(refs[name], lines...)
	}
	return nil
}
