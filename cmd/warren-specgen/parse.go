package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawSpec represents the protocol constant definitions loaded from YAML.
type RawSpec struct {
	Protocol   RawProtocol    `yaml:"protocol"`
	FrameTypes []RawConstant  `yaml:"frame_types"`
	Constants  []RawConstant  `yaml:"constants"`
	ReplyCodes []RawReplyCode `yaml:"reply_codes"`
}

// RawProtocol identifies the protocol version the spec describes.
type RawProtocol struct {
	Name     string `yaml:"name"`
	Major    uint8  `yaml:"major"`
	Minor    uint8  `yaml:"minor"`
	Revision uint8  `yaml:"revision"`
	Port     uint16 `yaml:"port"`
}

// RawConstant is a named constant. Names are kebab-case as in the
// protocol specification; Go identifiers are derived from them.
type RawConstant struct {
	Name        string `yaml:"name"`
	Value       int    `yaml:"value"`
	Label       string `yaml:"label"`  // display label; default: upper-snake of Name
	Format      string `yaml:"format"` // "hex" renders the value as 0xNN
	Description string `yaml:"description"`
}

// RawReplyCode is a reply code definition. Class is "soft-error" or
// "hard-error" for error codes and empty for success codes.
type RawReplyCode struct {
	Name        string `yaml:"name"`
	Value       int    `yaml:"value"`
	Label       string `yaml:"label"`
	Class       string `yaml:"class"`
	Description string `yaml:"description"`
}

// ParseSpec parses a protocol spec from YAML bytes.
func ParseSpec(data []byte) (*RawSpec, error) {
	var spec RawSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing spec: %w", err)
	}
	if spec.Protocol.Name == "" {
		return nil, fmt.Errorf("spec missing protocol name")
	}
	if len(spec.FrameTypes) == 0 {
		return nil, fmt.Errorf("spec defines no frame types")
	}
	for _, rc := range spec.ReplyCodes {
		switch rc.Class {
		case "", "soft-error", "hard-error":
		default:
			return nil, fmt.Errorf("reply code %s: unknown class %q", rc.Name, rc.Class)
		}
	}
	return &spec, nil
}

// LoadSpec loads and parses a protocol spec from a file.
func LoadSpec(path string) (*RawSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseSpec(data)
}

// goName converts a kebab-case spec name to a Go identifier:
// "content-too-large" becomes "ContentTooLarge".
func goName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// displayLabel returns the explicit label, or the upper-snake form of
// the spec name: "content-too-large" becomes "CONTENT_TOO_LARGE".
func displayLabel(name, label string) string {
	if label != "" {
		return label
	}
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
