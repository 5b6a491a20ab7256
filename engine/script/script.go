// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package script renders documents whose pages are produced by an embedded
// ECMAScript program, executed with goja.
//
// The document bytes are a script that must define three globals:
//
//	function pageCount()            -> number of pages
//	function pageSize(i)            -> {widthPt: ..., heightPt: ...}
//	function renderPage(i, w, h)    -> {fill: [r, g, b, a]}
//	                                   or a flat RGBA array of w*h*4 values
//
// This backend exists for procedurally generated documents and for driving
// the reader in tests and demos without any binary assets. The goja VM is
// not reentrant, so all calls on one document are serialized by a mutex.
package script

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"

	"github.com/dop251/goja"

	"github.com/gogpu/pageflow"
	"github.com/gogpu/pageflow/engine"
)

// Engine runs script documents.
type Engine struct {
	maxPixels int
	ready     bool
}

var _ engine.Engine = (*Engine)(nil)

// New creates a script engine with default options.
func New() *Engine {
	return &Engine{}
}

// Init applies engine options. Calling Init again after success is a no-op.
func (e *Engine) Init(_ context.Context, opts engine.Options) error {
	if e.ready {
		return nil
	}
	e.maxPixels = opts.MaxPixels
	e.ready = true
	return nil
}

// LoadDocument compiles and runs the script, then resolves the three
// required entry points. A script missing any of them is rejected here,
// not at first use.
func (e *Engine) LoadDocument(_ context.Context, data []byte) (engine.DocumentHandle, error) {
	vm := goja.New()
	if _, err := vm.RunString(string(data)); err != nil {
		return nil, fmt.Errorf("script: evaluate document: %w", err)
	}

	d := &document{engine: e, vm: vm}
	var err error
	if d.pageSize, err = fn(vm, "pageSize"); err != nil {
		return nil, err
	}
	if d.renderPage, err = fn(vm, "renderPage"); err != nil {
		return nil, err
	}

	count, err := fn(vm, "pageCount")
	if err != nil {
		return nil, err
	}
	v, err := count(goja.Undefined())
	if err != nil {
		return nil, fmt.Errorf("script: pageCount: %w", err)
	}
	d.count = int(v.ToInteger())
	if d.count <= 0 {
		return nil, fmt.Errorf("script: pageCount returned %d", d.count)
	}
	return d, nil
}

// fn resolves a global function defined by the document script.
func fn(vm *goja.Runtime, name string) (goja.Callable, error) {
	c, ok := goja.AssertFunction(vm.Get(name))
	if !ok {
		return nil, fmt.Errorf("script: document does not define %s()", name)
	}
	return c, nil
}

// document is one loaded script with its dedicated VM.
type document struct {
	engine *Engine

	mu         sync.Mutex // goja.Runtime is not reentrant
	vm         *goja.Runtime
	pageSize   goja.Callable
	renderPage goja.Callable
	count      int
	destroyed  bool
}

func (d *document) PageCount() int {
	return d.count
}

func (d *document) PageSize(_ context.Context, index int) (pageflow.SizePt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(index); err != nil {
		return pageflow.SizePt{}, err
	}

	v, err := d.pageSize(goja.Undefined(), d.vm.ToValue(index))
	if err != nil {
		return pageflow.SizePt{}, fmt.Errorf("script: pageSize(%d): %w", index, err)
	}
	obj, ok := v.Export().(map[string]interface{})
	if !ok {
		return pageflow.SizePt{}, fmt.Errorf("script: pageSize(%d) did not return an object", index)
	}
	size := pageflow.SizePt{
		Width:  toFloat(obj["widthPt"]),
		Height: toFloat(obj["heightPt"]),
	}
	if size.Width <= 0 || size.Height <= 0 {
		return pageflow.SizePt{}, fmt.Errorf("script: pageSize(%d) returned %+v", index, obj)
	}
	return size, nil
}

func (d *document) LoadPage(_ context.Context, index int) (engine.PageHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(index); err != nil {
		return nil, err
	}
	return &page{doc: d, index: index}, nil
}

func (d *document) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = true
	d.vm = nil
	d.pageSize = nil
	d.renderPage = nil
}

// check validates the document state and page index.
// Caller must hold d.mu.
func (d *document) check(index int) error {
	if d.destroyed {
		return errors.New("script: document destroyed")
	}
	if index < 0 || index >= d.count {
		return fmt.Errorf("script: page index %d out of range [0,%d)", index, d.count)
	}
	return nil
}

// page is one page of a script document.
type page struct {
	doc       *document
	index     int
	destroyed bool
}

// RenderTo invokes renderPage and copies the result into the surface.
func (p *page) RenderTo(ctx context.Context, s *pageflow.Surface, _ float64) error {
	if p.destroyed {
		return errors.New("script: page destroyed")
	}
	if limit := p.doc.engine.maxPixels; limit > 0 && s.Width()*s.Height() > limit {
		return fmt.Errorf("script: render %dx%d exceeds pixel cap %d", s.Width(), s.Height(), limit)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	if err := p.doc.check(p.index); err != nil {
		return err
	}

	w, h := s.Width(), s.Height()
	vm := p.doc.vm
	v, err := p.doc.renderPage(goja.Undefined(), vm.ToValue(p.index), vm.ToValue(w), vm.ToValue(h))
	if err != nil {
		return fmt.Errorf("script: renderPage(%d): %w", p.index, err)
	}

	switch out := v.Export().(type) {
	case map[string]interface{}:
		fill, ok := out["fill"].([]interface{})
		if !ok || len(fill) != 4 {
			return fmt.Errorf("script: renderPage(%d) object needs a 4-element fill array", p.index)
		}
		s.Clear(color.RGBA{
			R: toByte(fill[0]),
			G: toByte(fill[1]),
			B: toByte(fill[2]),
			A: toByte(fill[3]),
		})
	case []interface{}:
		want := w * h * 4
		if len(out) != want {
			return fmt.Errorf("script: renderPage(%d) returned %d values, want %d", p.index, len(out), want)
		}
		pix := s.RGBA().Pix
		for i, raw := range out {
			pix[i] = toByte(raw)
		}
	default:
		return fmt.Errorf("script: renderPage(%d) returned unsupported value %T", p.index, v.Export())
	}
	return nil
}

func (p *page) Destroy() {
	p.destroyed = true
}

// toFloat converts a goja-exported number. goja exports integers as int64
// and fractional numbers as float64.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toByte(v interface{}) uint8 {
	f := toFloat(v)
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f)
}
