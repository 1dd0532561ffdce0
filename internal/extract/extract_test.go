package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytes_PlainText(t *testing.T) {
	text, err := FromBytes("resume.TXT", []byte("Skills\nGo"))
	require.NoError(t, err)
	assert.Equal(t, "Skills\nGo", text)
}

func TestFromBytes_UnsupportedType(t *testing.T) {
	for _, filename := range []string{"photo.jpg", "sheet.xlsx", "noext", "resume.pdf.exe"} {
		t.Run(filename, func(t *testing.T) {
			_, err := FromBytes(filename, []byte("data"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedFormat))
			assert.Equal(t, "unsupported_format", KindName(err))

			var extractErr *Error
			require.True(t, errors.As(err, &extractErr))
			assert.Equal(t, filename, extractErr.Filename)
			assert.Contains(t, err.Error(), filename)
		})
	}
}

func TestFromBytes_GarbledBinary(t *testing.T) {
	tests := []string{"resume.pdf", "resume.docx", "resume.doc"}

	for _, filename := range tests {
		t.Run(filename, func(t *testing.T) {
			_, err := FromBytes(filename, []byte("this is not a real document"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrExtractionFailure))
			assert.False(t, errors.Is(err, ErrUnsupportedFormat))
			assert.Equal(t, "extraction_failure", KindName(err))
		})
	}
}

func TestFromMime(t *testing.T) {
	t.Run("text with charset", func(t *testing.T) {
		text, err := FromMime("text/plain; charset=utf-8", "cv.bin", []byte("Projects\nCLI"))
		require.NoError(t, err)
		assert.Equal(t, "Projects\nCLI", text)
	})

	t.Run("octet stream falls back to extension", func(t *testing.T) {
		text, err := FromMime("application/octet-stream", "cv.txt", []byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	})

	t.Run("empty mime falls back to extension", func(t *testing.T) {
		_, err := FromMime("", "cv.png", []byte("x"))
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})

	t.Run("unknown mime", func(t *testing.T) {
		_, err := FromMime("image/png", "cv.txt", []byte("x"))
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})

	t.Run("pdf mime with bad data", func(t *testing.T) {
		_, err := FromMime(MimePDF, "cv", []byte("%PDF-1.4 truncated"))
		assert.True(t, errors.Is(err, ErrExtractionFailure))
	})
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jane_cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("Work Experience\nAcme"), 0o644))

	text, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Work Experience\nAcme", text)
}

func TestFromFile_Missing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReadFailure))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, "read_failure", KindName(err))
}

func TestMimeTypeAndSupported(t *testing.T) {
	tests := []struct {
		filename string
		mime     string
	}{
		{filename: "a.pdf", mime: MimePDF},
		{filename: "A.PDF", mime: MimePDF},
		{filename: "a.docx", mime: MimeDOCX},
		{filename: "a.doc", mime: MimeDOC},
		{filename: "a.txt", mime: MimeText},
		{filename: "a.rtf", mime: ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.mime, MimeType(tt.filename))
			assert.Equal(t, tt.mime != "", Supported(tt.filename))
		})
	}
}

func TestKindName_Foreign(t *testing.T) {
	assert.Equal(t, "", KindName(errors.New("boom")))
	assert.Equal(t, "", KindName(nil))
}

func TestError_Message(t *testing.T) {
	err := newError(ErrExtractionFailure, "cv.pdf", errors.New("bad xref"))
	assert.Equal(t, "cv.pdf: extraction failure: bad xref", err.Error())

	bare := newError(ErrUnsupportedFormat, "cv.odt", nil)
	assert.Equal(t, "cv.odt: unsupported format", bare.Error())
	assert.True(t, errors.Is(bare, ErrUnsupportedFormat))
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Skills</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Go</w:t></w:r><w:r><w:t xml:space="preserve">, Rust &amp; SQL</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Projects</w:t><w:br/><w:t>Compiler</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	assert.Equal(t, "Skills\nGo, Rust & SQL\nProjects\nCompiler", docxXMLToText(xml))
}
