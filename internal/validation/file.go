package validation

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Column widths of the stored file metadata.
const (
	MaxFileNameLength    = 255
	MaxExtensionLength   = 10
	MaxContentTypeLength = 100
)

// RejectionKind classifies why an uploaded file was refused.
type RejectionKind string

const (
	KindTooLarge            RejectionKind = "TooLarge"
	KindDisallowedExtension RejectionKind = "DisallowedExtension"
)

// Rejection is returned by FileRules.Check when a file must not be stored.
type Rejection struct {
	Kind      RejectionKind
	Message   string
	Size      int64
	Extension string
}

func (r *Rejection) Error() string {
	return r.Message
}

// FileRules holds the upload limits of the configured storage backend.
// A MaxSize of zero or less disables the size check.
type FileRules struct {
	MaxSize int64
	allowed map[string]struct{}
}

// NewFileRules normalizes the allow-list: entries are lowercased and stripped of leading dots.
// Entries longer than MaxExtensionLength are dropped since they could never be stored.
func NewFileRules(maxSize int64, allowedExtensions []string) FileRules {
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.TrimLeft(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" && len(ext) <= MaxExtensionLength {
			allowed[ext] = struct{}{}
		}
	}
	return FileRules{MaxSize: maxSize, allowed: allowed}
}

// AllowedExtensions returns the allow-list in sorted order.
func (r FileRules) AllowedExtensions() []string {
	out := make([]string, 0, len(r.allowed))
	for ext := range r.allowed {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Check applies the size rule and then the extension rule to a candidate file.
// It only looks at the declared size and the name; the payload is never read.
func (r FileRules) Check(name string, size int64) error {
	if r.MaxSize > 0 && size > r.MaxSize {
		return &Rejection{
			Kind:    KindTooLarge,
			Size:    size,
			Message: fmt.Sprintf("File too large! Max %s (%s)", FormatMB(r.MaxSize), FormatMB(size)),
		}
	}

	ext := Extension(name)
	if _, ok := r.allowed[ext]; !ok {
		return &Rejection{
			Kind:      KindDisallowedExtension,
			Size:      size,
			Extension: ext,
			Message: fmt.Sprintf("File type not allowed: %q. Accepted extensions: %s",
				ext, strings.Join(r.AllowedExtensions(), ", ")),
		}
	}
	return nil
}

// CheckFileName reports a file name too long to be stored as a FieldError under field, or nil.
func CheckFileName(field, name string) *FieldError {
	if n := utf8.RuneCountInString(name); n > MaxFileNameLength {
		return &FieldError{
			Field:   field,
			Code:    "max",
			Message: fmt.Sprintf("Ensure this filename has at most %d characters (it has %d).", MaxFileNameLength, n),
		}
	}
	return nil
}

// Extension returns the lowercased suffix after the final dot of name, without the dot.
// Names without a dot yield "".
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// FormatMB renders a byte count in mebibytes with two decimals, e.g. "60.00MB".
func FormatMB(size int64) string {
	return fmt.Sprintf("%.2fMB", float64(size)/1024/1024)
}
