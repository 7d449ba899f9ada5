// Command sceneinfo imports a 3D asset through the registry and prints a
// YAML summary of the resulting Scene, the same "load it and look at
// what came out" role the teacher's cmd-line demo programs play for
// individual g3n subsystems.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/assetforge/sceneforge/codecs"
	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/postprocess"
	"github.com/assetforge/sceneforge/registry"
	"github.com/assetforge/sceneforge/scene"
	"github.com/assetforge/sceneforge/scenedump"
	"github.com/assetforge/sceneforge/util/logger"
)

func main() {
	format := flag.String("format", "", "explicit importer name, bypassing extension/signature detection")
	readMaterials := flag.Bool("mdl-materials", true, "decode MDL (HL1) textures into materials")
	readAnimations := flag.Bool("mdl-animations", false, "decode MDL (HL1) sequences into animations")
	logFile := flag.String("log-file", "", "also write log output to this file")
	logLevel := flag.String("log-level", "warn", "minimum log level: debug|info|warn|error|fatal")
	flag.Parse()

	if err := logger.Default.SetLevelByName(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "sceneinfo: %v\n", err)
		os.Exit(2)
	}
	if *logFile != "" {
		f, err := logger.NewFile(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sceneinfo: opening log file: %v\n", err)
			os.Exit(1)
		}
		logger.AddWriter(f)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sceneinfo [flags] <path>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	passes, err := postprocess.NewRegistry(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sceneinfo: %v\n", err)
		os.Exit(1)
	}

	r := registry.New()
	codecs.Register(r)
	r.Properties().SetBool("import.mdl.hl1.read_materials", *readMaterials)
	r.Properties().SetBool("import.mdl.hl1.read_animations", *readAnimations)
	r.SetPostProcessRunner(func(sc *scene.Scene, props *registry.Properties) error {
		return passes.Run(sc, ^postprocess.Flag(0), props)
	})

	sc, err := r.Import(ioset.NewOS(), path, registry.Hints{ExplicitFormat: *format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sceneinfo: %v\n", err)
		os.Exit(1)
	}

	out, err := scenedump.Marshal(sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sceneinfo: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
}
