package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

const (
	maxFrameBodySize = 4 << 20
	maxImageBodySize = 32 << 20
)

// Processor runs one recognition cycle. *recognition.Cycle implements it.
type Processor interface {
	Process(ctx context.Context, probes []facematch.Probe) ([]recognition.Status, error)
}

// Extractor turns an image into face embeddings. *fingerprint.EmbeddingClient implements it.
type Extractor interface {
	ExtractFaces(ctx context.Context, image []byte) ([][]float32, error)
}

// FramesHandler accepts detections from the camera side and runs them through
// the recognition cycle.
type FramesHandler struct {
	processor Processor
	extractor Extractor
	logger    *slog.Logger
	now       func() time.Time
}

// NewFramesHandler creates a new frames handler. extractor may be nil, in
// which case image uploads are rejected.
func NewFramesHandler(p Processor, extractor Extractor, logger *slog.Logger) *FramesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FramesHandler{processor: p, extractor: extractor, logger: logger, now: time.Now}
}

// FramesResponse is returned by both frame endpoints.
type FramesResponse struct {
	Statuses []StatusResponse `json:"statuses"`
}

// Submit handles POST /api/v1/frames with a JSON frame of embeddings.
func (h *FramesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var frame recognition.Frame
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFrameBodySize)).Decode(&frame); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	h.process(w, r, frame.Probes(h.now()))
}

// SubmitImage handles POST /api/v1/frames/image with a raw image body or a
// multipart "file" part. Faces are extracted by the embedding service.
func (h *FramesHandler) SubmitImage(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		respondError(w, http.StatusServiceUnavailable, "embedding service not configured")
		return
	}

	data, err := readImage(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image: "+err.Error())
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "empty image")
		return
	}

	faces, err := h.extractor.ExtractFaces(r.Context(), data)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "face extraction failed", "error", err)
		respondError(w, http.StatusBadGateway, "face extraction failed")
		return
	}

	now := h.now()
	probes := make([]facematch.Probe, 0, len(faces))
	for _, emb := range faces {
		probes = append(probes, facematch.Probe{Embedding: emb, Timestamp: now})
	}
	h.process(w, r, probes)
}

func (h *FramesHandler) process(w http.ResponseWriter, r *http.Request, probes []facematch.Probe) {
	statuses, err := h.processor.Process(r.Context(), probes)
	if err != nil {
		if errors.Is(err, facematch.ErrDimensionMismatch) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "recognition cycle failed", "error", sanitizeForLog(err.Error()))
		respondError(w, http.StatusInternalServerError, "recognition failed")
		return
	}
	respondJSON(w, http.StatusOK, FramesResponse{Statuses: toStatusResponses(statuses)})
}

func readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBodySize)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}
