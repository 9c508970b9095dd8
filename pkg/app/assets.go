package app

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"

	_ "image/jpeg"
	_ "image/png"
)

// dirAssets loads costume images from a directory on disk.
type dirAssets struct {
	dir string
}

func (a dirAssets) CostumeImage(name string) (*ebiten.Image, error) {
	path := name
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.dir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open costume %s: %w", name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode costume %s: %w", name, err)
	}
	return ebiten.NewImageFromImage(img), nil
}
