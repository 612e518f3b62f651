package kyc

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"marketplace-booking/logger"
	providerModel "marketplace-booking/models/provider"

	"google.golang.org/genai"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service handles KYC document intake and extraction.
type Service struct {
	DB        *gorm.DB
	UploadDir string
	APIKey    string
}

func NewService(db *gorm.DB, apiKey string) *Service {
	return &Service{
		DB:        db,
		UploadDir: "uploaded_kyc_documents",
		APIKey:    apiKey,
	}
}

// GenerateRequestID generates a 24 character unique request ID.
func (s *Service) GenerateRequestID() string {
	bytes := make([]byte, 12)
	rand.Read(bytes)

	requestID := hex.EncodeToString(bytes)
	timestamp := time.Now().Unix()

	// Last 6 hex characters of the timestamp plus 18 random hex characters.
	return fmt.Sprintf("%06x%s", timestamp&0xffffff, requestID[:18])
}

// CreateInitialDocument creates the processing record before any file IO or
// extraction starts, so the request is traceable even if those fail.
func (s *Service) CreateInitialDocument(providerID uint, requestID, originalFileName string, fileSize int64, mimeType string) (*providerModel.KYCDocument, error) {
	doc := &providerModel.KYCDocument{
		RequestID:        requestID,
		ProviderID:       providerID,
		OriginalFileName: originalFileName,
		FileSize:         fileSize,
		MimeType:         mimeType,
		Status:           "processing",
	}

	if err := s.DB.Create(doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create kyc document record: %w", err)
	}

	return doc, nil
}

// SaveFileAsync persists the uploaded document to disk in the background.
func (s *Service) SaveFileAsync(requestID string, fileBytes []byte, originalFileName string) {
	go func() {
		if err := s.saveFile(requestID, fileBytes, originalFileName); err != nil {
			logger.Error(fmt.Sprintf("Failed to save file for kyc request %s", requestID), err)
			s.updateDocumentWithFileError(requestID, err.Error())
		}
	}()
}

func (s *Service) saveFile(requestID string, fileBytes []byte, originalFileName string) error {
	if err := s.ensureUploadDir(); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	hash := sha256.Sum256(fileBytes)
	fileHash := hex.EncodeToString(hash[:])

	ext := filepath.Ext(originalFileName)
	savedFileName := fmt.Sprintf("%s_%d%s", requestID, time.Now().Unix(), ext)
	filePath := filepath.Join(s.UploadDir, savedFileName)

	if err := os.WriteFile(filePath, fileBytes, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	updates := map[string]interface{}{
		"saved_file_name": savedFileName,
		"file_hash":       fileHash,
		"file_path":       filePath,
	}

	if err := s.DB.Model(&providerModel.KYCDocument{}).Where("request_id = ?", requestID).Updates(updates).Error; err != nil {
		os.Remove(filePath)
		return fmt.Errorf("failed to update document with file info: %w", err)
	}

	logger.Success(fmt.Sprintf("File saved successfully for kyc request %s: %s", requestID, savedFileName))
	return nil
}

// SaveSuccessResultAsync stores the extraction result in the background.
func (s *Service) SaveSuccessResultAsync(requestID string, extracted *providerModel.KYCExtraction, processingTime int64) {
	go func() {
		if err := s.saveSuccessResult(requestID, extracted, processingTime); err != nil {
			logger.Error(fmt.Sprintf("Failed to save success result for kyc request %s", requestID), err)
		}
	}()
}

func (s *Service) saveSuccessResult(requestID string, extracted *providerModel.KYCExtraction, processingTime int64) error {
	var doc providerModel.KYCDocument
	if err := s.DB.Where("request_id = ?", requestID).First(&doc).Error; err != nil {
		return fmt.Errorf("failed to find kyc document: %w", err)
	}

	if err := doc.MarkAsSuccess(s.DB, extracted, processingTime); err != nil {
		return fmt.Errorf("failed to mark kyc document as success: %w", err)
	}

	// The latest extraction is snapshotted on the provider so the admin
	// review queue can render it without joining documents.
	meta, err := json.Marshal(extracted)
	if err != nil {
		return fmt.Errorf("failed to encode kyc metadata: %w", err)
	}
	err = s.DB.Model(&providerModel.Provider{}).
		Where("id = ?", doc.ProviderID).
		Update("kyc_metadata", datatypes.JSON(meta)).Error
	if err != nil {
		return fmt.Errorf("failed to store provider kyc metadata: %w", err)
	}

	// A successful extraction moves a freshly started verification into review.
	err = s.DB.Model(&providerModel.Provider{}).
		Where("id = ? AND kyc_status = ?", doc.ProviderID, providerModel.KYCStatusInProgress).
		Update("kyc_status", providerModel.KYCStatusPendingReview).Error
	if err != nil {
		return fmt.Errorf("failed to advance provider kyc status: %w", err)
	}

	logger.Success(fmt.Sprintf("Extraction result saved successfully for kyc request %s", requestID))
	return nil
}

// SaveFailureResultAsync records the extraction failure in the background.
func (s *Service) SaveFailureResultAsync(requestID string, errorMsg string, processingTime int64) {
	go func() {
		if err := s.saveFailureResult(requestID, errorMsg, processingTime); err != nil {
			logger.Error(fmt.Sprintf("Failed to save failure result for kyc request %s", requestID), err)
		}
	}()
}

func (s *Service) saveFailureResult(requestID string, errorMsg string, processingTime int64) error {
	var doc providerModel.KYCDocument
	if err := s.DB.Where("request_id = ?", requestID).First(&doc).Error; err != nil {
		return fmt.Errorf("failed to find kyc document: %w", err)
	}

	if err := doc.MarkAsFailed(s.DB, errorMsg, processingTime); err != nil {
		return fmt.Errorf("failed to mark kyc document as failed: %w", err)
	}

	logger.Info(fmt.Sprintf("Failure result saved for kyc request %s: %s", requestID, errorMsg))
	return nil
}

func (s *Service) updateDocumentWithFileError(requestID string, errorMsg string) {
	updates := map[string]interface{}{
		"status":        "failed",
		"error_message": fmt.Sprintf("File saving error: %s", errorMsg),
	}

	if err := s.DB.Model(&providerModel.KYCDocument{}).Where("request_id = ?", requestID).Updates(updates).Error; err != nil {
		logger.Error(fmt.Sprintf("Failed to update kyc request %s with file error", requestID), err)
	}
}

func (s *Service) ensureUploadDir() error {
	if _, err := os.Stat(s.UploadDir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.UploadDir, 0755); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Created upload directory: %s", s.UploadDir))
	}
	return nil
}

// GetDocumentByRequestID retrieves a document by its request ID.
func (s *Service) GetDocumentByRequestID(requestID string) (*providerModel.KYCDocument, error) {
	var doc providerModel.KYCDocument
	if err := s.DB.Where("request_id = ?", requestID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocumentsForProvider lists a provider's documents, newest first.
func (s *Service) GetDocumentsForProvider(providerID uint, limit int) ([]providerModel.KYCDocument, error) {
	var docs []providerModel.KYCDocument
	query := s.DB.Where("provider_id = ?", providerID).Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}

	return docs, nil
}

// ExtractDocument extracts structured identity data from a document image
// using the Gemini Vision API.
func (s *Service) ExtractDocument(ctx context.Context, imageBytes []byte, mimeType string) (*providerModel.KYCExtraction, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not found in environment variables")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	prompt := `Analyze this business verification document image and extract the following information. Return ONLY valid JSON.

			Extract these fields from the image. If a field is missing or unclear, use an empty string.

			Required JSON format:
			{
			"document_type": string,         // e.g. business_registration, trade_license, id_card
			"legal_name": string,            // Registered legal or trading name
			"registration_number": string,   // Business/company registration number
			"issued_by": string,             // Issuing authority
			"expiry_date": string,           // Expiry date if present, as printed
			"confidence": string             // Your confidence: high, medium or low
			}`

	content := &genai.Content{
		Parts: []*genai.Part{
			&genai.Part{Text: prompt},
			&genai.Part{InlineData: &genai.Blob{
				MIMEType: mimeType,
				Data:     imageBytes,
			}},
		},
	}

	result, err := client.Models.GenerateContent(
		ctx,
		"gemini-2.5-flash-lite",
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.1)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with OCR: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated by OCR")
	}

	responseText := result.Candidates[0].Content.Parts[0].Text
	if responseText == "" {
		return nil, fmt.Errorf("empty response from OCR")
	}

	jsonText := extractJSONFromMarkdown(responseText)

	var extracted providerModel.KYCExtraction
	if err := json.Unmarshal([]byte(jsonText), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w, response: %s", err, jsonText)
	}

	return &extracted, nil
}

// extractJSONFromMarkdown strips markdown code fences from a model response.
func extractJSONFromMarkdown(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 1 {
			jsonLines := lines[1 : len(lines)-1]
			return strings.Join(jsonLines, "\n")
		}
	}

	return text
}

// IsValidImageType checks if the provided content type is accepted for
// document upload.
func IsValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
	}
	return validTypes[contentType]
}
