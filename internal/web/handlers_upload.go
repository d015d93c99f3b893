package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/JonMunkholm/salesview/internal/core"
)

// csvFormField is the multipart field carrying the uploaded file.
const csvFormField = "csvfile"

// defaultBodyFileName names a raw CSV body sent without a filename.
const defaultBodyFileName = "upload.csv"

// jsonBodyOverhead is allowed on top of the file size limit for the JSON
// envelope of /upload.
const jsonBodyOverhead = 1 << 20

// loadResponse is the body of a successful upload.
type loadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// handleUploadJSON replaces the dataset with records from {"data": [...]}.
func (s *Server) handleUploadJSON(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+jsonBodyOverhead)

	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.metrics.observeUpload("json", core.ErrFileTooLarge, 0, 0)
			s.respondErrorMessage(w, r, core.ErrFileTooLarge, http.StatusBadRequest, s.fileTooLargeMessage())
			return
		}
		s.metrics.observeUpload("json", err, 0, 0)
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidJSONData, err), http.StatusBadRequest)
		return
	}

	ds, err := s.service.LoadJSON(r.Context(), body.Data)
	s.metrics.observeUpload("json", err, ds.Len(), 0)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	logger.Info("json upload complete", "records", ds.Len())
	writeJSON(w, http.StatusOK, loadResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully loaded %d sales records", ds.Len()),
		Count:   ds.Len(),
	})
}

// handleUploadCSV streams the csvfile part of a multipart upload to a temp
// file, hashing it on the way, then parses it with the streaming parser.
// The temp file is removed on every path. A body sent as text/csv is parsed
// straight from the request instead.
func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	if isCSVUpload(r.Header.Get("Content-Type"), "") {
		s.handleUploadCSVBody(w, r)
		return
	}

	logger := requestLogger(r)
	maxSize := s.cfg.Upload.MaxFileSize

	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err), http.StatusBadRequest)
		return
	}

	part, err := nextFilePart(mr, csvFormField)
	if err != nil {
		s.metrics.observeUpload("csv", err, 0, 0)
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer part.Close()

	fileName := filepath.Base(part.FileName())
	if !isCSVUpload(part.Header.Get("Content-Type"), fileName) {
		err := fmt.Errorf("%w: %s", core.ErrNotCSV, fileName)
		s.metrics.observeUpload("csv", err, 0, 0)
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	tmpPath := filepath.Join(s.tempDir(), "csv_"+uuid.NewString()+".csv")
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove temp file", "path", tmpPath, "error", err)
		}
	}()

	size, checksum, err := spoolToFile(tmpPath, part, maxSize)
	if err != nil {
		s.metrics.observeUpload("csv", err, 0, 0)
		if errors.Is(err, core.ErrFileTooLarge) {
			s.respondErrorMessage(w, r, err, http.StatusBadRequest, s.fileTooLargeMessage())
			return
		}
		s.respondErrorMessage(w, r, err, http.StatusInternalServerError, "Error processing CSV file")
		return
	}

	logger.Info("csv upload received",
		"file", fileName,
		"size", humanize.IBytes(uint64(size)),
	)

	ds, err := s.service.LoadCSVFile(r.Context(), tmpPath, core.UploadMeta{
		FileName: fileName,
		Size:     size,
		Checksum: checksum,
	})
	s.metrics.observeUpload("csv", err, ds.Len(), size)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.respondErrorMessage(w, r, err, status, "Error processing CSV file")
			return
		}
		s.respondError(w, r, err, status)
		return
	}

	writeJSON(w, http.StatusOK, loadResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully loaded %d sales records from CSV", ds.Len()),
		Count:   ds.Len(),
	})
}

// handleUploadCSVBody parses a raw CSV request body without spooling it to
// disk. The file name comes from the optional filename query parameter.
func (s *Server) handleUploadCSVBody(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	fileName := defaultBodyFileName
	if name := r.URL.Query().Get("filename"); name != "" {
		fileName = filepath.Base(name)
	}

	ds, err := s.service.LoadCSV(r.Context(), r.Body, core.UploadMeta{FileName: fileName})
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		err = fmt.Errorf("%w: more than %d bytes", core.ErrFileTooLarge, maxErr.Limit)
	}
	s.metrics.observeUpload("csv", err, ds.Len(), ds.ByteSize())
	if err != nil {
		status := statusFor(err)
		switch {
		case errors.Is(err, core.ErrFileTooLarge):
			s.respondErrorMessage(w, r, err, status, s.fileTooLargeMessage())
		case status == http.StatusInternalServerError:
			s.respondErrorMessage(w, r, err, status, "Error processing CSV file")
		default:
			s.respondError(w, r, err, status)
		}
		return
	}

	logger.Info("csv body upload complete",
		"file", fileName,
		"size", humanize.IBytes(uint64(ds.ByteSize())),
		"records", ds.Len(),
	)
	writeJSON(w, http.StatusOK, loadResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully loaded %d sales records from CSV", ds.Len()),
		Count:   ds.Len(),
	})
}

// nextFilePart advances mr to the file part named field. Other parts are
// skipped unread.
func nextFilePart(mr *multipart.Reader, field string) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, core.ErrNoFile
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
		}
		if part.FormName() == field && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

// spoolToFile copies at most maxSize bytes of r to a new file at path and
// returns the byte count and xxh3 checksum. A body larger than maxSize
// fails with core.ErrFileTooLarge before any parsing happens.
func spoolToFile(path string, r io.Reader, maxSize int64) (int64, uint64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, 0, fmt.Errorf("create temp file: %w", err)
	}

	hasher := xxh3.New()
	n, copyErr := io.Copy(io.MultiWriter(f, hasher), io.LimitReader(r, maxSize+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		return n, 0, fmt.Errorf("write temp file: %w", copyErr)
	case n > maxSize:
		return n, 0, fmt.Errorf("%w: more than %d bytes", core.ErrFileTooLarge, maxSize)
	case closeErr != nil:
		return n, 0, fmt.Errorf("close temp file: %w", closeErr)
	}
	return n, hasher.Sum64(), nil
}

// isCSVUpload accepts a declared CSV media type or a .csv file name.
func isCSVUpload(contentType, fileName string) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/csv", "application/csv", "application/vnd.ms-excel":
		return true
	}
	return false
}

func (s *Server) tempDir() string {
	if s.cfg.Upload.TempDir != "" {
		return s.cfg.Upload.TempDir
	}
	return os.TempDir()
}

// fileTooLargeMessage renders the configured limit, e.g. "File size
// exceeds 500MB limit".
func (s *Server) fileTooLargeMessage() string {
	limit := s.cfg.Upload.MaxFileSize
	if limit > 0 && limit%(1<<20) == 0 {
		return fmt.Sprintf("File size exceeds %dMB limit", limit>>20)
	}
	return fmt.Sprintf("File size exceeds %s limit", humanize.IBytes(uint64(limit)))
}
