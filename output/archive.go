package output

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"woo-exporter/internal/types"
)

// WriteImagesZip packs a product's processed images into one zip so the
// import tool can attach them in a single upload.
func WriteImagesZip(path string, images []types.ProcessedImage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, img := range images {
		w, err := zw.Create(img.FileName)
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to add %s: %w", img.FileName, err)
		}
		if _, err := w.Write(img.Data); err != nil {
			zw.Close()
			return fmt.Errorf("failed to write %s: %w", img.FileName, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return f.Close()
}

// WriteBundleZip collects every completed product's CSV and images zip
// into one archive, each under its product directory name.
func WriteBundleZip(path string, bundles []types.ProductBundle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, bundle := range bundles {
		prefix := filepath.Base(bundle.OutputDir)
		for _, src := range []string{bundle.CSVPath, bundle.ImagesZipPath} {
			if src == "" {
				continue
			}
			if err := addFile(zw, src, prefix+"/"+filepath.Base(src)); err != nil {
				zw.Close()
				return err
			}
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return f.Close()
}

func addFile(zw *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}
