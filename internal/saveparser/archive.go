package saveparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// openSaveDocument opens the archive at path and returns a reader over its
// embedded save document plus a close function for the archive. The document
// is the first *.xml member, or the sole member of a single-file archive.
func openSaveDocument(path string) (io.ReadCloser, func() error, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, &ParseError{Path: path, Msg: "not a valid save archive", Err: err}
	}

	member := locateDocument(&archive.Reader)
	if member == nil {
		_ = archive.Close()
		return nil, nil, &ParseError{Path: path, Msg: "archive contains no save document"}
	}

	doc, err := member.Open()
	if err != nil {
		_ = archive.Close()
		return nil, nil, &ParseError{
			Path: path,
			Msg:  fmt.Sprintf("cannot open archive member %s", member.Name),
			Err:  err,
		}
	}

	return doc, archive.Close, nil
}

// locateDocument picks the embedded document member: the first XML file in
// archive order, falling back to a sole non-directory member.
func locateDocument(archive *zip.Reader) *zip.File {
	var sole *zip.File
	fileCount := 0

	for _, member := range archive.File {
		if member.FileInfo().IsDir() {
			continue
		}
		fileCount++
		if sole == nil {
			sole = member
		}
		if strings.HasSuffix(strings.ToLower(member.Name), ".xml") {
			return member
		}
	}

	if fileCount == 1 {
		return sole
	}
	return nil
}
