// warren-specgen generates pkg/wire/constants_gen.go from the protocol
// constant definitions in spec/amqp0-9-1.yaml.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

func main() {
	specPath := flag.String("spec", "", "Path to protocol spec YAML")
	outputPath := flag.String("output", "", "Output path for the generated Go file")
	flag.Parse()

	if *specPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: warren-specgen -spec <path> -output <path>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*specPath, *outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(specPath, outputPath string) error {
	spec, err := LoadSpec(specPath)
	if err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}

	code, err := GenerateConstants(spec)
	if err != nil {
		return fmt.Errorf("generating constants: %w", err)
	}

	if err := writeFormatted(outputPath, code); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	fmt.Printf("  generated %s\n", outputPath)
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Write unformatted so you can debug the generator output
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
