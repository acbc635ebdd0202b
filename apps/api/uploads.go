package main

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/unicode/norm"
)

// reportFormOverheadBytes is the room left for text fields and multipart
// framing on top of the photo limit.
const reportFormOverheadBytes = 64 << 10

var (
	errInvalidUploadName = errors.New("invalid upload filename")
	errUploadTooLarge    = errors.New("upload exceeds size limit")
	unsafeFilenameChars  = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	pathSeparatorSpacer  = strings.NewReplacer("/", " ", `\`, " ")
)

func (a *App) uploadDir() string {
	return filepath.Join(a.cfg.DataRoot, "uploads")
}

// sanitizeUploadFilename reduces a client-supplied filename to a flat ASCII
// name made of letters, digits, '_', '.' and '-'. An empty result means the
// name had nothing usable in it.
func sanitizeUploadFilename(name string) string {
	decomposed := norm.NFKD.String(name)
	var ascii strings.Builder
	ascii.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < utf8.RuneSelf {
			ascii.WriteRune(r)
		}
	}
	spaced := pathSeparatorSpacer.Replace(ascii.String())
	joined := strings.Join(strings.Fields(spaced), "_")
	return strings.Trim(unsafeFilenameChars.ReplaceAllString(joined, ""), "._")
}

// resolveUploadPath maps a flat filename into the upload directory and
// refuses anything that would land outside of it.
func (a *App) resolveUploadPath(filename string) (string, error) {
	trimmed := strings.TrimSpace(filename)
	if trimmed == "" || trimmed == "." || trimmed == ".." || strings.ContainsAny(trimmed, `/\`) {
		return "", errInvalidUploadName
	}

	root := filepath.Clean(a.uploadDir())
	resolved := filepath.Clean(filepath.Join(root, trimmed))
	relative, err := filepath.Rel(root, resolved)
	if err != nil {
		return "", err
	}
	if relative == "." || relative == ".." || strings.HasPrefix(relative, ".."+string(os.PathSeparator)) {
		return "", errInvalidUploadName
	}
	return resolved, nil
}

// parseReportForm caps the request body before anything reads it, so an
// oversized upload is cut off at the limit instead of being spooled to disk.
func (a *App) parseReportForm(c *gin.Context) error {
	if a.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.cfg.MaxUploadBytes+reportFormOverheadBytes)
	}

	err := c.Request.ParseMultipartForm(a.cfg.MaxUploadBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errUploadTooLarge
	}
	return err
}

// storeUploadedPhoto writes the uploaded file under its sanitized name,
// overwriting any previous file with the same name. A nil name with a nil
// error means there was nothing to store.
func (a *App) storeUploadedPhoto(c *gin.Context, fileHeader *multipart.FileHeader) (*string, error) {
	if fileHeader == nil || fileHeader.Filename == "" {
		return nil, nil
	}
	if a.cfg.MaxUploadBytes > 0 && fileHeader.Size > a.cfg.MaxUploadBytes {
		return nil, errUploadTooLarge
	}
	filename := sanitizeUploadFilename(fileHeader.Filename)
	if filename == "" {
		return nil, nil
	}
	fullPath, err := a.resolveUploadPath(filename)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, err
	}
	if err := c.SaveUploadedFile(fileHeader, fullPath); err != nil {
		return nil, fmt.Errorf("save upload %s: %w", filename, err)
	}
	return &filename, nil
}

// removeUpload deletes a stored file. A file that is already gone is fine.
func (a *App) removeUpload(filename string) error {
	fullPath, err := a.resolveUploadPath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (a *App) uploadServeHandler(c *gin.Context) {
	fullPath, err := a.resolveUploadPath(c.Param("filename"))
	if err != nil || !fileExists(fullPath) {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	c.File(fullPath)
}
