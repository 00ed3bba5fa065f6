package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"sahayak-agent/internal/identity"
	"sahayak-agent/internal/ocr"

	"github.com/google/uuid"
)

// CameraProvider is the injected capability for taking a still picture.
// Implementations wrap the platform camera; tests use fakes.
type CameraProvider interface {
	TakePicture(ctx context.Context) ([]byte, error)
}

// CaptureResult is what a capture attempt produced. Captured is true
// only when a well-formed identity number was extracted; everything else
// falls back to manual entry. A failed capture never blocks submission.
type CaptureResult struct {
	Captured       bool   `json:"captured"`
	IdentityNumber string `json:"identity_number,omitempty"`
	Name           string `json:"name,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Address        string `json:"address,omitempty"`
	EvidencePath   string `json:"evidence_path,omitempty"`
	FailureReason  string `json:"failure_reason,omitempty"`
}

// CaptureService orchestrates camera capture and the external OCR
// provider to pre-fill identity fields on an application.
type CaptureService struct {
	camera      CameraProvider
	ocr         ocr.Provider
	evidenceDir string
}

func NewCaptureService(camera CameraProvider, provider ocr.Provider, evidenceDir string) *CaptureService {
	return &CaptureService{
		camera:      camera,
		ocr:         provider,
		evidenceDir: evidenceDir,
	}
}

// Capture takes a picture, runs OCR on it and validates the extracted
// identity number. The adapter is advisory: all failure paths return a
// usable result with Captured=false and a reason, never an error the
// caller has to special-case.
func (s *CaptureService) Capture(ctx context.Context) *CaptureResult {
	image, err := s.camera.TakePicture(ctx)
	if err != nil {
		log.Printf("[Capture] camera failed: %v", err)
		return &CaptureResult{FailureReason: fmt.Sprintf("camera: %v", err)}
	}

	evidencePath, err := s.saveEvidence(image)
	if err != nil {
		// The photo is supporting evidence, not the record itself;
		// extraction can still proceed.
		log.Printf("[Capture] could not save evidence photo: %v", err)
	}

	card, err := s.ocr.Extract(ctx, image)
	if err != nil {
		log.Printf("[Capture] ocr failed: %v", err)
		return &CaptureResult{
			EvidencePath:  evidencePath,
			FailureReason: err.Error(),
		}
	}

	result := &CaptureResult{
		Name:         card.Name,
		DateOfBirth:  card.DateOfBirth,
		Gender:       card.Gender,
		Address:      card.Address,
		EvidencePath: evidencePath,
	}

	number := identity.Normalize(card.IdentityNumber)
	if !identity.IsValid(number) {
		// Keep the partial fields; the number comes in manually.
		result.FailureReason = "extracted identity number failed validation"
		return result
	}

	result.Captured = true
	result.IdentityNumber = number
	return result
}

func (s *CaptureService) saveEvidence(image []byte) (string, error) {
	if s.evidenceDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(s.evidenceDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("card-%d-%s.jpg", time.Now().Unix(), uuid.NewString()[:8])
	path := filepath.Join(s.evidenceDir, name)
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
