// Command pageflow inspects and renders multi-page documents through the
// virtualized reader.
//
// Supported document types are picked by file extension: .js documents run
// under the script engine, everything else is treated as a zip of page
// images (CBZ).
package main

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/pageflow"
	"github.com/gogpu/pageflow/engine"
	"github.com/gogpu/pageflow/engine/cbz"
	"github.com/gogpu/pageflow/engine/script"
	"github.com/gogpu/pageflow/reader"
	"github.com/gogpu/pageflow/sizecache"
)

var (
	flagVerbose   bool
	flagPPI       float64
	flagBudgetMB  int64
	flagOutDir    string
	flagSizeCache string
	flagViewportH int
)

func main() {
	root := &cobra.Command{
		Use:   "pageflow",
		Short: "Virtualized document-page renderer",
		PersistentPreRun: func(*cobra.Command, []string) {
			if flagVerbose {
				pageflow.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().Float64Var(&flagPPI, "ppi", 96, "rendering resolution")
	root.PersistentFlags().StringVar(&flagSizeCache, "size-cache", "", "path to the page geometry cache (empty: in-memory)")

	infoCmd := &cobra.Command{
		Use:   "info <document>",
		Short: "Print page count and geometry",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	exportCmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Render every page to PNG files",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringVarP(&flagOutDir, "out", "o", ".", "output directory")
	exportCmd.Flags().Int64Var(&flagBudgetMB, "budget-mb", 256, "raster memory budget in MiB")

	simulateCmd := &cobra.Command{
		Use:   "simulate <document>",
		Short: "Scroll through the document and report cache behavior",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Int64Var(&flagBudgetMB, "budget-mb", 64, "raster memory budget in MiB")
	simulateCmd.Flags().IntVar(&flagViewportH, "viewport", 1000, "viewport height in pixels")

	root.AddCommand(infoCmd, exportCmd, simulateCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// engineFor picks an engine implementation by file extension.
func engineFor(path string) engine.Engine {
	if strings.EqualFold(filepath.Ext(path), ".js") {
		return script.New()
	}
	return cbz.New()
}

func openStore(cmd *cobra.Command, path string, budgetMB int64, viewportH int) (*reader.Store, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var cache *sizecache.Store
	cleanup := func() {}
	if flagSizeCache != "" {
		cache, err = sizecache.Open(flagSizeCache)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { cache.Close() }
	}

	st, err := reader.Open(cmd.Context(), reader.Config{
		Engine:      engineFor(path),
		DocumentID:  filepath.Base(path),
		Data:        data,
		PPI:         flagPPI,
		BudgetBytes: budgetMB << 20,
		Viewport:    reader.Viewport{Width: 800, Height: viewportH},
		SizeCache:   cache,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return st, cleanup, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	eng := engineFor(args[0])
	if err := eng.Init(cmd.Context(), engine.Options{}); err != nil {
		return err
	}
	doc, err := eng.LoadDocument(cmd.Context(), data)
	if err != nil {
		return err
	}
	defer doc.Destroy()

	count := doc.PageCount()
	fmt.Printf("%s: %d pages\n", args[0], count)
	for i := 0; i < count; i++ {
		size, err := doc.PageSize(cmd.Context(), i)
		if err != nil {
			fmt.Printf("  page %3d: %v\n", i, err)
			continue
		}
		px := pageflow.PixelSize(size, flagPPI)
		fmt.Printf("  page %3d: %.1f x %.1f pt  (%d x %d px at %.0f ppi)\n",
			i, size.Width, size.Height, px.Width, px.Height, flagPPI)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	st, cleanup, err := openStore(cmd, args[0], flagBudgetMB, 1000)
	if err != nil {
		return err
	}
	defer cleanup()
	defer st.Close()

	if err := os.MkdirAll(flagOutDir, 0o755); err != nil {
		return err
	}

	for i := 0; i < st.PageCount(); i++ {
		st.ScrollToPage(i)
		st.WaitIdle()

		img := st.Snapshot(i)
		if img == nil {
			status, msg := st.PageStatus(i)
			fmt.Fprintf(os.Stderr, "page %d not rendered (%v %s)\n", i, status, msg)
			continue
		}
		out := filepath.Join(flagOutDir, fmt.Sprintf("page-%04d.png", i))
		if err := writePNG(out, img); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", out)
	}
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	st, cleanup, err := openStore(cmd, args[0], flagBudgetMB, flagViewportH)
	if err != nil {
		return err
	}
	defer cleanup()
	defer st.Close()

	st.WaitIdle()
	fmt.Printf("document: %d pages, budget %d MiB, viewport %dpx\n",
		st.PageCount(), flagBudgetMB, flagViewportH)

	step := flagViewportH / 2
	for y := 0; y <= st.TotalHeight(); y += step {
		st.Scrolled(y)
		st.WaitIdle()
		fmt.Printf("scroll %6d: page %3d, visible %v, raster %5.1f MiB\n",
			y, st.CurrentPage(), st.VisiblePages(), float64(st.BytesUsed())/(1<<20))
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
