package frame

import (
	"context"
	"fmt"
	"github.com/disintegration/imaging"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirSource replays the images of a directory, sorted by file name. Wait
// returns io.EOF once every file was delivered.
type DirSource struct {
	files []string
	next  int
	size  image.Point
}

func NewDirSource(dir string, size image.Point) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to list frames from directory '%s': %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return &DirSource{files: files, size: size}, nil
}

func (s *DirSource) Len() int {
	return len(s.files)
}

func (s *DirSource) Wait(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.files) {
		return nil, io.EOF
	}
	path := s.files[s.next]
	s.next++

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to stat frame '%s': %w", path, err)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unable to open frame '%s': %w", path, err)
	}
	mat, err := toMat(img, s.size)
	if err != nil {
		return nil, fmt.Errorf("unable to load frame '%s': %w", path, err)
	}
	return &Frame{
		ID:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Name:      filepath.Base(filepath.Dir(path)),
		CreatedAt: info.ModTime(),
		Mat:       mat,
	}, nil
}
