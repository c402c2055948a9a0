package main

import (
	"fmt"
	"strings"
	"text/template"
)

// funcMap provides helper functions available to the templates.
var funcMap = template.FuncMap{
	"goName": goName,
	"label":  func(c RawConstant) string { return displayLabel(c.Name, c.Label) },
	"codeLabel": func(c RawReplyCode) string {
		return displayLabel(c.Name, c.Label)
	},
	"value": func(c RawConstant) string {
		if c.Format == "hex" {
			return fmt.Sprintf("0x%02X", c.Value)
		}
		return fmt.Sprintf("%d", c.Value)
	},
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	"softList": func(spec *RawSpec) string {
		return strings.Join(softCodes(spec), ", ")
	},
}

// templates holds the parsed code generation templates.
var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	headerTmpl + frameTypesTmpl + constantsTmpl + replyCodesTmpl,
))

// GenerateConstants renders the wire constants file from a parsed spec.
func GenerateConstants(spec *RawSpec) (string, error) {
	var b strings.Builder
	for _, name := range []string{"header", "frametypes", "constants", "replycodes"} {
		if err := templates.ExecuteTemplate(&b, name, spec); err != nil {
			return "", fmt.Errorf("template %s: %w", name, err)
		}
	}
	return b.String(), nil
}

// softCodes returns the Go names of soft (recoverable) reply codes in
// spec order.
func softCodes(spec *RawSpec) []string {
	var names []string
	for _, rc := range spec.ReplyCodes {
		if rc.Class == "soft-error" {
			names = append(names, goName(rc.Name))
		}
	}
	return names
}

const headerTmpl = `{{define "header"}}// Code generated by warren-specgen. DO NOT EDIT.

package wire
{{end}}`

const frameTypesTmpl = `{{define "frametypes"}}
// FrameType identifies the kind of a frame.
type FrameType uint8

const (
{{- range .FrameTypes}}
// {{goName .Name}}: {{.Description}}.
{{goName .Name}} FrameType = {{value .}}
{{- end}}
)

// String returns the frame type name.
func (t FrameType) String() string {
switch t {
{{- range .FrameTypes}}
case {{goName .Name}}:
return {{quote (label .)}}
{{- end}}
default:
return "UNKNOWN"
}
}
{{end}}`

const constantsTmpl = `{{define "constants"}}
// Frame layout constants.
const (
{{- range .Constants}}
// {{goName .Name}}: {{.Description}}.
{{goName .Name}} = {{value .}}
{{- end}}
)
{{end}}`

const replyCodesTmpl = `{{define "replycodes"}}
// ReplyCode is a reply code carried by connection.close and channel.close.
type ReplyCode uint16

const (
{{- range .ReplyCodes}}
// {{goName .Name}}: {{.Description}}.
{{goName .Name}} ReplyCode = {{.Value}}
{{- end}}
)

// String returns the reply code name.
func (c ReplyCode) String() string {
switch c {
{{- range .ReplyCodes}}
case {{goName .Name}}:
return {{quote (codeLabel .)}}
{{- end}}
default:
return "UNKNOWN"
}
}

// IsSoft reports whether the code names a soft (channel-level,
// recoverable) error rather than a hard connection error.
func (c ReplyCode) IsSoft() bool {
switch c {
case {{softList .}}:
return true
default:
return false
}
}
{{end}}`
