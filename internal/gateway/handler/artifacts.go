package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/repository/artifact"
)

// maxArtifactBytes caps uploads; artifact screenshots are small, anything
// larger is a client bug.
const maxArtifactBytes = 16 << 20

func parseArtifactPath(r *http.Request) (runID string, number int, ext string, err error) {
	runID = strings.TrimSpace(r.PathValue("runId"))
	file := strings.TrimSpace(r.PathValue("file"))
	if runID == "" || file == "" {
		return "", 0, "", entity.Invalidf("path", "runId and file are required")
	}
	name, ext, ok := strings.Cut(file, ".")
	if !ok || !strings.HasPrefix(name, "v") {
		return "", 0, "", entity.Invalidf("path", "file must look like v{number}.{ext}")
	}
	number, convErr := strconv.Atoi(strings.TrimPrefix(name, "v"))
	if convErr != nil || number < 1 {
		return "", 0, "", entity.Invalidf("path", "file must look like v{number}.{ext}")
	}
	return runID, number, ext, nil
}

func (s *Service) HandleUploadArtifact(w http.ResponseWriter, r *http.Request) {
	runID, number, ext, err := parseArtifactPath(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	content, err := io.ReadAll(io.LimitReader(r.Body, maxArtifactBytes+1))
	if err != nil {
		s.writeError(w, entity.Backendf("read upload", err))
		return
	}
	if len(content) > maxArtifactBytes {
		s.writeError(w, entity.Invalidf("body", "artifact exceeds %d bytes", maxArtifactBytes))
		return
	}
	key, err := s.artifacts.Put(r.Context(), runID, number, ext, content)
	if err != nil {
		s.writeError(w, entity.Backendf("store artifact", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": key})
}

func (s *Service) HandleGetArtifact(w http.ResponseWriter, r *http.Request) {
	runID, number, ext, err := parseArtifactPath(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	content, err := s.artifacts.Get(r.Context(), runID, number, ext)
	if errors.Is(err, artifact.ErrNotFound) {
		s.writeError(w, entity.ErrNotFound)
		return
	}
	if err != nil {
		s.writeError(w, entity.Backendf("load artifact", err))
		return
	}
	w.Header().Set("Content-Type", artifactContentType(ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func artifactContentType(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png", "":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
