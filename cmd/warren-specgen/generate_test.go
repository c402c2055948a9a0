package main

import (
	"strings"
	"testing"
)

func mustContain(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Errorf("output missing %q", want)
	}
}

func testSpec() *RawSpec {
	return &RawSpec{
		Protocol: RawProtocol{Name: "AMQP", Minor: 9, Revision: 1, Port: 5672},
		FrameTypes: []RawConstant{
			{Name: "frame-method", Value: 1, Label: "METHOD", Description: "method call or synchronous reply"},
			{Name: "frame-heartbeat", Value: 8, Label: "HEARTBEAT", Description: "connection liveness probe"},
		},
		Constants: []RawConstant{
			{Name: "frame-min-size", Value: 4096, Description: "the smallest frame-max a peer may negotiate"},
			{Name: "frame-end", Value: 206, Format: "hex", Description: "the sentinel octet terminating every frame"},
		},
		ReplyCodes: []RawReplyCode{
			{Name: "reply-success", Value: 200, Label: "SUCCESS", Description: "the operation completed successfully"},
			{Name: "content-too-large", Value: 311, Class: "soft-error", Description: "the message exceeds a server or consumer limit"},
			{Name: "internal-error", Value: 541, Class: "hard-error", Description: "the server failed for an internal reason"},
		},
	}
}

func TestGenerateConstants_FrameTypes(t *testing.T) {
	output, err := GenerateConstants(testSpec())
	if err != nil {
		t.Fatalf("GenerateConstants failed: %v", err)
	}

	mustContain(t, output, "// Code generated by warren-specgen. DO NOT EDIT.")
	mustContain(t, output, "package wire")
	mustContain(t, output, "type FrameType uint8")
	mustContain(t, output, "FrameMethod FrameType = 1")
	mustContain(t, output, "FrameHeartbeat FrameType = 8")
	mustContain(t, output, `return "METHOD"`)
	mustContain(t, output, "// FrameMethod: method call or synchronous reply.")
}

func TestGenerateConstants_LayoutConstants(t *testing.T) {
	output, err := GenerateConstants(testSpec())
	if err != nil {
		t.Fatalf("GenerateConstants failed: %v", err)
	}

	mustContain(t, output, "FrameMinSize = 4096")
	mustContain(t, output, "FrameEnd = 0xCE")
}

func TestGenerateConstants_ReplyCodes(t *testing.T) {
	output, err := GenerateConstants(testSpec())
	if err != nil {
		t.Fatalf("GenerateConstants failed: %v", err)
	}

	mustContain(t, output, "type ReplyCode uint16")
	mustContain(t, output, "ReplySuccess ReplyCode = 200")
	mustContain(t, output, "ContentTooLarge ReplyCode = 311")
	mustContain(t, output, `return "SUCCESS"`)
	mustContain(t, output, `return "CONTENT_TOO_LARGE"`)

	// Only soft-error codes appear in IsSoft.
	mustContain(t, output, "case ContentTooLarge:")
	if strings.Contains(output, "case InternalError:\nreturn true") {
		t.Error("hard-error code listed as soft")
	}
}

func TestGenerateConstants_RealSpec(t *testing.T) {
	spec, err := LoadSpec(specPath(t))
	if err != nil {
		t.Fatalf("LoadSpec failed: %v", err)
	}

	output, err := GenerateConstants(spec)
	if err != nil {
		t.Fatalf("GenerateConstants failed: %v", err)
	}

	mustContain(t, output, "FrameBody FrameType = 3")
	mustContain(t, output, "PreconditionFailed ReplyCode = 406")
	mustContain(t, output, "case ContentTooLarge, NoConsumers, AccessRefused, NotFound, ResourceLocked, PreconditionFailed:")
}

func TestSoftCodes(t *testing.T) {
	got := softCodes(testSpec())
	if len(got) != 1 || got[0] != "ContentTooLarge" {
		t.Errorf("softCodes = %v, want [ContentTooLarge]", got)
	}
}
