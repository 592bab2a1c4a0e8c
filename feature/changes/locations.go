package changes

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"bibsync/core/storage"
)

// ErrOutsideRoot is returned for a location the HTTP API may not touch.
var ErrOutsideRoot = errors.New("location is outside the allowed root")

// Locations confines client-supplied locations to a local directory and a
// single bucket.
type Locations struct {
	root   string
	bucket string
}

// NewLocations confines local paths to root. bucket is the only bucket s3
// locations may name; with an empty bucket every s3 location is refused.
func NewLocations(root, bucket string) (*Locations, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	return &Locations{root: abs, bucket: bucket}, nil
}

// Resolve returns the location to use in place of location. Relative paths
// are resolved against the root, s3:object is expanded with the bucket, and
// anything outside either is refused. An empty location stays empty.
func (l *Locations) Resolve(location string) (string, error) {
	if location == "" {
		return "", nil
	}

	if strings.HasPrefix(location, "s3:") {
		expanded := storage.Expand(location, l.bucket)
		bucket, _, ok := storage.ParseLocation(expanded)
		if !ok || l.bucket == "" || bucket != l.bucket {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, location)
		}
		return expanded, nil
	}

	path := location
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, location)
	}
	return path, nil
}

func (l *Locations) scanRequest(req ScanRequest) (ScanRequest, error) {
	var err error
	for _, loc := range []*string{&req.Document, &req.Baseline, &req.Memory} {
		if *loc, err = l.Resolve(*loc); err != nil {
			return req, err
		}
	}
	return req, nil
}

func (l *Locations) acceptRequest(req AcceptRequest) (AcceptRequest, error) {
	scan, err := l.scanRequest(req.ScanRequest)
	if err != nil {
		return req, err
	}
	req.ScanRequest = scan
	if req.Output, err = l.Resolve(req.Output); err != nil {
		return req, err
	}
	return req, nil
}
