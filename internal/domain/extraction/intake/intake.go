// Package intake screens uploaded documents before they reach the engine.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

const (
	MinSize = 1 << 10
	MaxSize = 10 << 20
)

// ErrRejected matches every RejectionError.
var ErrRejected = errors.New("document rejected")

// Reason classifies a rejection.
type Reason string

const (
	ReasonContentType    Reason = "content_type"
	ReasonExtension      Reason = "extension"
	ReasonTooSmall       Reason = "too_small"
	ReasonTooLarge       Reason = "too_large"
	ReasonSuspiciousName Reason = "suspicious_name"
	ReasonNotPDF         Reason = "not_pdf"
)

// RejectionError explains why a document was refused.
type RejectionError struct {
	Reason Reason
	Detail string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("document rejected (%s): %s", e.Reason, e.Detail)
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

var acceptedTypes = map[string]bool{
	"application/pdf":          true,
	"application/x-pdf":        true,
	"application/octet-stream": true, // browsers and CLIs that do not sniff
}

var executableExts = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".scr": true, ".pif": true, ".com": true,
	".js": true, ".vbs": true, ".sh": true,
}

// Validate checks the declared metadata of an upload. contentType may be
// empty when the caller has none.
func Validate(name, contentType string, size int64) error {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || !acceptedTypes[strings.ToLower(mediaType)] {
			return &RejectionError{Reason: ReasonContentType, Detail: fmt.Sprintf("%q is not a PDF content type", contentType)}
		}
	}

	base := strings.ToLower(filepath.Base(strings.TrimSpace(name)))
	ext := filepath.Ext(base)
	if ext != ".pdf" {
		return &RejectionError{Reason: ReasonExtension, Detail: "file must have a .pdf extension"}
	}
	// statement.exe.pdf and similar
	for stem := strings.TrimSuffix(base, ext); filepath.Ext(stem) != ""; stem = strings.TrimSuffix(stem, filepath.Ext(stem)) {
		if executableExts[filepath.Ext(stem)] {
			return &RejectionError{Reason: ReasonSuspiciousName, Detail: fmt.Sprintf("%q hides an executable extension", name)}
		}
	}

	if size < MinSize {
		return &RejectionError{Reason: ReasonTooSmall, Detail: fmt.Sprintf("%d bytes is below the %d byte minimum", size, MinSize)}
	}
	if size > MaxSize {
		return &RejectionError{Reason: ReasonTooLarge, Detail: fmt.Sprintf("%d bytes exceeds the %d byte limit", size, MaxSize)}
	}
	return nil
}

var pdfMagic = []byte("%PDF-")

// Sniff checks that the content starts with a PDF header. Some producers
// write a few junk bytes first, so the header may appear within the first
// kilobyte.
func Sniff(document []byte) error {
	head := document
	if len(head) > MinSize {
		head = head[:MinSize]
	}
	if !bytes.Contains(head, pdfMagic) {
		return &RejectionError{Reason: ReasonNotPDF, Detail: "missing %PDF- header"}
	}
	return nil
}

// Check runs Validate and Sniff on an in-memory document.
func Check(name, contentType string, document []byte) error {
	if err := Validate(name, contentType, int64(len(document))); err != nil {
		return err
	}
	return Sniff(document)
}
