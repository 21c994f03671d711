// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"path/filepath"
	"strings"

	"github.com/pdiddy/ugc/pkg/types"
)

// Route is the decode path chosen for a source file.
type Route int

const (
	// RouteRaster decodes the file directly, sniffing its format.
	RouteRaster Route = iota
	// RouteHEIC decodes a HEIC container to a full raster buffer.
	RouteHEIC
	// RoutePDF renders page 1 through the render collaborator.
	RoutePDF
)

func (r Route) String() string {
	switch r {
	case RouteHEIC:
		return "heic"
	case RoutePDF:
		return "pdf"
	default:
		return "raster"
	}
}

// RouteFor picks the route by lower-cased extension.
func RouteFor(path string) Route {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".heic":
		return RouteHEIC
	case ".pdf":
		return RoutePDF
	default:
		return RouteRaster
	}
}

// Naming selects how output file names are derived.
type Naming int

const (
	// NamingSuffixed writes {base}_converted.{format}.
	NamingSuffixed Naming = iota
	// NamingPlain writes {base}.{format}.
	NamingPlain
)

const convertedSuffix = "_converted"

// OutputPath computes where source's converted file goes. An empty
// outputDir means the source's directory. The result never equals the
// source path: a plain name that would collide falls back to the suffix.
func OutputPath(source string, format types.TargetFormat, outputDir string, naming Naming) string {
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

	if naming == NamingPlain {
		out := filepath.Join(dir, base+"."+string(format))
		if filepath.Clean(out) != filepath.Clean(source) {
			return out
		}
	}
	return filepath.Join(dir, base+convertedSuffix+"."+string(format))
}
