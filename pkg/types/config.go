package types

import "time"

// ConvertConfig holds settings for the desktop conversion command.
type ConvertConfig struct {
	// Format is the default target format when --format is not given.
	Format string `json:"format" yaml:"format"`

	// OutputDir is where converted files go; empty means next to each source.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// JPEGQuality is used for jpg/jpeg output and for the JPEG embedded in PDFs (1-100).
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`

	// WebPQuality is the lossy WebP quality (1-100).
	WebPQuality int `json:"webp_quality" yaml:"webp_quality"`

	// AVIFQuality is the AVIF quality (1-100).
	AVIFQuality int `json:"avif_quality" yaml:"avif_quality"`

	// RenderScale multiplies a PDF page's 72 DPI size when rendering page 1 (default 2.0).
	RenderScale float64 `json:"render_scale" yaml:"render_scale"`

	// RenderTimeout bounds a single PDF render request (default 30s).
	RenderTimeout time.Duration `json:"render_timeout" yaml:"render_timeout"`
}

// GhostscriptConfig holds settings for the external raster tool.
type GhostscriptConfig struct {
	// Binary is the ghostscript executable name or path (default "gs").
	Binary string `json:"binary" yaml:"binary"`

	// DPI is the render resolution for PDF sources (default 150).
	DPI int `json:"dpi" yaml:"dpi"`
}

// ServerConfig holds settings for the HTTP conversion service.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	// UploadDir receives uploaded files; they are deleted after conversion.
	UploadDir string `json:"upload_dir" yaml:"upload_dir"`

	// DownloadDir holds converted files until they are pruned.
	DownloadDir string `json:"download_dir" yaml:"download_dir"`

	// CatalogPath is the SQLite database tracking downloadable files.
	CatalogPath string `json:"catalog_path" yaml:"catalog_path"`

	// MaxUploadBytes caps a single multipart request body.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`

	// Retention is how long converted files stay downloadable. Zero keeps them forever.
	Retention time.Duration `json:"retention" yaml:"retention"`

	// RequestTimeout bounds one HTTP request, conversion included.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// LogConfig selects the structured log level and encoding.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is "console" or "json".
	Format string `json:"format" yaml:"format"`
}

// Config groups all settings.
type Config struct {
	Convert     ConvertConfig     `json:"convert" yaml:"convert"`
	Ghostscript GhostscriptConfig `json:"ghostscript" yaml:"ghostscript"`
	Server      ServerConfig      `json:"server" yaml:"server"`
	Log         LogConfig         `json:"log" yaml:"log"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Convert: ConvertConfig{
			Format:        string(FormatPNG),
			JPEGQuality:   90,
			WebPQuality:   80,
			AVIFQuality:   60,
			RenderScale:   2.0,
			RenderTimeout: 30 * time.Second,
		},
		Ghostscript: GhostscriptConfig{
			Binary: "gs",
			DPI:    150,
		},
		Server: ServerConfig{
			Addr:           ":3000",
			UploadDir:      "uploads",
			DownloadDir:    "downloads",
			CatalogPath:    "downloads/catalog.db",
			MaxUploadBytes: 256 << 20,
			Retention:      24 * time.Hour,
			RequestTimeout: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
