// Package attach loads files for inclusion in a chat turn. Images travel as
// inline base64 parts, common text files are embedded in the prompt, and PDFs
// are referenced by name only.
package attach

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	apierrors "github.com/grimoco/grimchat/internal/errors"
	"github.com/grimoco/grimchat/internal/models"
	"github.com/grimoco/grimchat/internal/transcript"
)

// MaxSize is the attachment size cap in bytes
const MaxSize = 10 * 1024 * 1024

// excerptLen caps the preview snippet shown for text attachments
const excerptLen = 200

// Kind classifies how an attachment travels to the service
type Kind int

// Attachment kinds
const (
	KindImage Kind = iota
	KindText
	KindPDF
)

// textExtensions are treated as inline text regardless of detected mime type
var textExtensions = map[string]bool{
	".js":   true,
	".py":   true,
	".md":   true,
	".json": true,
	".html": true,
	".css":  true,
	".txt":  true,
}

// File is a loaded, classified attachment ready to encode
type File struct {
	Name string
	Mime string
	Size int64
	Kind Kind

	base64Data string
	textData   string
}

// Excerpt returns the preview snippet for the file
func (f *File) Excerpt() string {
	switch f.Kind {
	case KindPDF:
		return "PDF content cannot be previewed or directly analyzed."
	case KindImage:
		return ""
	}
	if len(f.textData) > excerptLen {
		return f.textData[:excerptLen] + "..."
	}
	return f.textData
}

// Load reads and classifies the file at path. Files over MaxSize are
// rejected before reading; unsupported types are rejected after
// classification.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat attachment: %w", err)
	}
	name := filepath.Base(path)
	if info.Size() > MaxSize {
		return nil, apierrors.NewAttachmentTooLargeError(name, info.Size(), MaxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(name))
	mimeType := mime.TypeByExtension(ext)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}

	f := &File{
		Name: name,
		Mime: mimeType,
		Size: info.Size(),
	}

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		f.Kind = KindImage
		f.base64Data = base64.StdEncoding.EncodeToString(data)
	case strings.HasPrefix(mimeType, "text/") || textExtensions[ext]:
		f.Kind = KindText
		f.textData = string(data)
		if f.Mime == "" {
			f.Mime = "text/plain"
		}
	case mimeType == "application/pdf":
		f.Kind = KindPDF
	default:
		return nil, apierrors.NewAttachmentUnsupportedError(name, mimeType)
	}

	return f, nil
}

// Parts encodes the file as request parts to append after the prompt text.
// Images become an inline binary part; text files are framed inside a text
// part; PDFs contribute a note carrying only the file name.
func (f *File) Parts() []models.Part {
	switch f.Kind {
	case KindImage:
		return []models.Part{models.ImagePart(f.Mime, f.base64Data)}
	case KindText:
		return []models.Part{models.TextPart(fmt.Sprintf(
			"\n\n--- User attached file: %s ---\n%s\n--- End of user attached file ---",
			f.Name, f.textData))}
	case KindPDF:
		return []models.Part{models.TextPart(fmt.Sprintf(
			"\n\n--- User attached file: %s (PDF) ---\nNote: I cannot directly read PDF content, but the user has attached this file.",
			f.Name))}
	}
	return nil
}

// Record converts the file into its transcript form
func (f *File) Record() *transcript.Attachment {
	att := &transcript.Attachment{
		Name: f.Name,
		Mime: f.Mime,
		Size: f.Size,
	}
	if f.Kind == KindImage {
		att.ImageBase64 = f.base64Data
	} else {
		att.TextExcerpt = f.Excerpt()
	}
	return att
}
