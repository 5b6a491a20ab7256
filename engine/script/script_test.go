package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/pageflow"
	"github.com/gogpu/pageflow/engine"
)

const fillDoc = `
function pageCount() { return 3; }
function pageSize(i) { return {widthPt: 100 + i * 10, heightPt: 200}; }
function renderPage(i, w, h) { return {fill: [i * 10, 0, 0, 255]}; }
`

const pixelDoc = `
function pageCount() { return 1; }
function pageSize(i) { return {widthPt: 2, heightPt: 2}; }
function renderPage(i, w, h) {
	var pix = [];
	for (var p = 0; p < w * h; p++) { pix.push(255, 128, 0, 255); }
	return pix;
}
`

func loadDoc(t *testing.T, src string) engine.DocumentHandle {
	t.Helper()
	doc, err := New().LoadDocument(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(doc.Destroy)
	return doc
}

func TestPageCountAndSizes(t *testing.T) {
	doc := loadDoc(t, fillDoc)

	assert.Equal(t, 3, doc.PageCount())

	size, err := doc.PageSize(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, pageflow.SizePt{Width: 120, Height: 200}, size)
}

func TestRenderFill(t *testing.T) {
	doc := loadDoc(t, fillDoc)

	page, err := doc.LoadPage(context.Background(), 2)
	require.NoError(t, err)
	defer page.Destroy()

	s := pageflow.NewSurface(4, 4)
	require.NoError(t, page.RenderTo(context.Background(), s, 96))

	r, _, _, a := s.RGBA().At(1, 1).RGBA()
	assert.Equal(t, uint32(20), r>>8)
	assert.Equal(t, uint32(255), a>>8)
}

func TestRenderPixelArray(t *testing.T) {
	doc := loadDoc(t, pixelDoc)

	page, err := doc.LoadPage(context.Background(), 0)
	require.NoError(t, err)
	defer page.Destroy()

	s := pageflow.NewSurface(3, 3)
	require.NoError(t, page.RenderTo(context.Background(), s, 96))

	pix := s.RGBA().Pix
	assert.Equal(t, uint8(255), pix[0])
	assert.Equal(t, uint8(128), pix[1])
	assert.Equal(t, uint8(0), pix[2])
	assert.Equal(t, uint8(255), pix[3])
}

func TestRejectsIncompleteScript(t *testing.T) {
	_, err := New().LoadDocument(context.Background(), []byte(`function pageCount() { return 1; }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pageSize")
}

func TestRejectsSyntaxError(t *testing.T) {
	_, err := New().LoadDocument(context.Background(), []byte(`function {`))
	assert.Error(t, err)
}

func TestRejectsZeroPages(t *testing.T) {
	_, err := New().LoadDocument(context.Background(), []byte(`
		function pageCount() { return 0; }
		function pageSize(i) { return {widthPt: 1, heightPt: 1}; }
		function renderPage(i, w, h) { return {fill: [0,0,0,0]}; }
	`))
	assert.Error(t, err)
}

func TestRenderWrongPixelCountFails(t *testing.T) {
	doc := loadDoc(t, `
		function pageCount() { return 1; }
		function pageSize(i) { return {widthPt: 2, heightPt: 2}; }
		function renderPage(i, w, h) { return [1, 2, 3]; }
	`)

	page, err := doc.LoadPage(context.Background(), 0)
	require.NoError(t, err)
	defer page.Destroy()

	err = page.RenderTo(context.Background(), pageflow.NewSurface(2, 2), 96)
	assert.Error(t, err)
}

func TestPageIndexOutOfRange(t *testing.T) {
	doc := loadDoc(t, fillDoc)

	_, err := doc.PageSize(context.Background(), 3)
	assert.Error(t, err)
	_, err = doc.LoadPage(context.Background(), -1)
	assert.Error(t, err)
}

func TestDestroyedDocumentRejectsCalls(t *testing.T) {
	doc := loadDoc(t, fillDoc)
	doc.Destroy()

	_, err := doc.PageSize(context.Background(), 0)
	assert.Error(t, err)
}

func TestScriptErrorSurfacesAsRenderError(t *testing.T) {
	doc := loadDoc(t, `
		function pageCount() { return 1; }
		function pageSize(i) { return {widthPt: 1, heightPt: 1}; }
		function renderPage(i, w, h) { throw new Error("page on fire"); }
	`)

	page, err := doc.LoadPage(context.Background(), 0)
	require.NoError(t, err)
	defer page.Destroy()

	err = page.RenderTo(context.Background(), pageflow.NewSurface(1, 1), 96)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page on fire")
}
