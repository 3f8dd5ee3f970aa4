/*
Backend probing tool: enumerates the compiled-in graphics backends and
reports their capabilities.
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spaghettifunk/vega/engine/platform"
	"github.com/spaghettifunk/vega/engine/renderer"
	"github.com/spaghettifunk/vega/engine/renderer/gl"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"

	// Compiled-in backends.
	_ "github.com/spaghettifunk/vega/engine/renderer/vulkan"
)

func main() {
	backendFlag := flag.String("backend", "auto", "backend to probe (auto, opengl, opengles, vulkan)")
	listOnly := flag.Bool("list", false, "list backends without initializing graphics")
	flag.Parse()

	config := &renderer.Config{
		Width:     1,
		Height:    1,
		Offscreen: true,
	}
	switch *backendFlag {
	case "auto":
	case "opengl":
		config.Backend = metadata.BackendOpenGL
	case "opengles":
		config.Backend = metadata.BackendOpenGLES
	case "vulkan":
		config.Backend = metadata.BackendVulkan
	default:
		fmt.Fprintf(os.Stderr, "unknown backend %q\n", *backendFlag)
		os.Exit(1)
	}

	probe := renderer.Probe
	if *listOnly {
		probe = renderer.Backends
	} else {
		// The OpenGL family needs a native context to report anything; a
		// hidden window provides one. Failures only degrade the report.
		if plat, err := platform.New(); err == nil {
			if err := plat.Startup("vega-probe", 0, 0, 64, 64, true); err == nil {
				defer plat.Shutdown()
				if glContext, err := plat.NewGLContext(); err == nil {
					config.BackendConfig = &gl.Config{Context: glContext}
				}
			}
		}
	}
	backends, err := probe(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	if len(backends) == 0 {
		fmt.Println("no backend available")
		return
	}

	for _, backend := range backends {
		def := ""
		if backend.IsDefault {
			def = " (default)"
		}
		fmt.Printf("- %s [%s]%s\n", backend.Name, backend.StringID, def)
		for _, cap := range backend.Caps {
			fmt.Printf("    %s: %d\n", cap.StringID, cap.Value)
		}
	}
}
