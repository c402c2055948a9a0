//go:build tools

package tools

// Tool dependencies, tracked in go.mod via blank imports.
// Run `go run github.com/vektra/mockery/v2` to regenerate mocks.
import (
	_ "github.com/vektra/mockery/v2"
)
