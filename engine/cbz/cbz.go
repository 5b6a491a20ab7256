// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cbz renders comic-book style documents: zip archives whose
// entries are page images (PNG or JPEG), one page per image, ordered by
// file name.
//
// Page images carry no physical size, so geometry is derived from pixel
// dimensions at the engine's source DPI (default 96): a 960px wide image
// becomes a 720pt wide page. Rasterization decodes the image and scales it
// into the target surface.
package cbz

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"sort"
	"strings"

	// Page image formats.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/pageflow"
	"github.com/gogpu/pageflow/engine"
)

// defaultSourceDPI is assumed when Options.SourceDPI is zero.
const defaultSourceDPI = 96.0

// Engine renders zip-of-images documents.
// The zero value is usable after Init; New applies the same defaults.
type Engine struct {
	sourceDPI float64
	maxPixels int
	ready     bool
}

var _ engine.Engine = (*Engine)(nil)

// New creates a CBZ engine with default options.
// Init may still be called to override them.
func New() *Engine {
	return &Engine{sourceDPI: defaultSourceDPI}
}

// Init applies engine options. Calling Init again after success is a no-op.
func (e *Engine) Init(_ context.Context, opts engine.Options) error {
	if e.ready {
		return nil
	}
	e.sourceDPI = opts.SourceDPI
	if e.sourceDPI <= 0 {
		e.sourceDPI = defaultSourceDPI
	}
	e.maxPixels = opts.MaxPixels
	e.ready = true
	return nil
}

// LoadDocument opens a zip archive and collects its page images.
func (e *Engine) LoadDocument(_ context.Context, data []byte) (engine.DocumentHandle, error) {
	if !e.ready {
		e.sourceDPI = defaultSourceDPI
		e.ready = true
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("cbz: open archive: %w", err)
	}

	var pages []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".png", ".jpg", ".jpeg":
			pages = append(pages, f)
		}
	}
	if len(pages) == 0 {
		return nil, errors.New("cbz: archive contains no page images")
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Name < pages[j].Name })

	return &document{engine: e, pages: pages}, nil
}

// document is an open CBZ archive.
type document struct {
	engine    *Engine
	pages     []*zip.File
	destroyed bool
}

func (d *document) PageCount() int {
	return len(d.pages)
}

// PageSize decodes only the image header, not the pixel data.
func (d *document) PageSize(_ context.Context, index int) (pageflow.SizePt, error) {
	f, err := d.page(index)
	if err != nil {
		return pageflow.SizePt{}, err
	}

	rc, err := f.Open()
	if err != nil {
		return pageflow.SizePt{}, fmt.Errorf("cbz: open %s: %w", f.Name, err)
	}
	defer rc.Close()

	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		return pageflow.SizePt{}, fmt.Errorf("cbz: decode header of %s: %w", f.Name, err)
	}

	scale := 72.0 / d.engine.sourceDPI
	return pageflow.SizePt{
		Width:  float64(cfg.Width) * scale,
		Height: float64(cfg.Height) * scale,
	}, nil
}

func (d *document) LoadPage(_ context.Context, index int) (engine.PageHandle, error) {
	f, err := d.page(index)
	if err != nil {
		return nil, err
	}
	return &page{engine: d.engine, file: f}, nil
}

func (d *document) Destroy() {
	d.destroyed = true
	d.pages = nil
}

func (d *document) page(index int) (*zip.File, error) {
	if d.destroyed {
		return nil, errors.New("cbz: document destroyed")
	}
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("cbz: page index %d out of range [0,%d)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// page is one loaded page image.
type page struct {
	engine    *Engine
	file      *zip.File
	destroyed bool
}

// RenderTo decodes the page image and scales it into the surface.
// Scaling uses bilinear interpolation; the surface is filled edge to edge,
// so aspect ratio is preserved only because the caller sizes the surface
// from the same geometry this engine reported.
func (p *page) RenderTo(ctx context.Context, s *pageflow.Surface, _ float64) error {
	if p.destroyed {
		return errors.New("cbz: page destroyed")
	}
	if limit := p.engine.maxPixels; limit > 0 && s.Width()*s.Height() > limit {
		return fmt.Errorf("cbz: render %dx%d exceeds pixel cap %d", s.Width(), s.Height(), limit)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rc, err := p.file.Open()
	if err != nil {
		return fmt.Errorf("cbz: open %s: %w", p.file.Name, err)
	}
	src, _, err := image.Decode(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("cbz: decode %s: %w", p.file.Name, err)
	}

	dst := s.RGBA()
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return nil
}

func (p *page) Destroy() {
	p.destroyed = true
	p.file = nil
}
