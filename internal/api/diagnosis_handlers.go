package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/middleware"
	"github.com/agrihealth-server/internal/service"
	"github.com/agrihealth-server/internal/storage"
)

// multipartOverhead is the allowance for form fields on top of the image
const multipartOverhead = 1 << 20

// symptomList accepts either a JSON array of strings or a single string
type symptomList []string

func (l *symptomList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("symptoms must be a string or an array of strings")
	}
	*l = []string{one}
	return nil
}

type submitBody struct {
	Type        string      `json:"type"`
	SpeciesName string      `json:"speciesName"`
	Symptoms    symptomList `json:"symptoms"`
	Temperature *float64    `json:"temperature"`
	Notes       *string     `json:"notes"`
	Location    *string     `json:"location"`
}

type symptomsBody struct {
	Symptoms symptomList `json:"symptoms"`
}

type reviewBody struct {
	ExpertAdvice  string `json:"expertAdvice"`
	TreatmentPlan string `json:"treatmentPlan"`
}

func (s *Server) handleSubmitDiagnosis(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var (
		req *service.SubmitRequest
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var closeImage func()
		req, closeImage, err = s.parseMultipartSubmit(c)
		defer closeImage()
	} else {
		var body submitBody
		if !bindJSON(c, &body) {
			return
		}
		req = &service.SubmitRequest{
			Type:        body.Type,
			SpeciesName: body.SpeciesName,
			Symptoms:    body.Symptoms,
			Temperature: body.Temperature,
			Notes:       body.Notes,
			Location:    body.Location,
		}
	}
	if err != nil {
		fail(c, err)
		return
	}
	req.UserID = userID

	record, err := s.services.Diagnosis.Submit(c.Request.Context(), req)
	if err != nil {
		status, _ := middleware.Classify(err, false, "")
		if req.Image != nil && status >= http.StatusInternalServerError && errors.Is(err, domain.ErrUpstream) {
			err = middleware.WithMessage(err, "Error uploading image")
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Diagnosis submitted successfully",
		"diagnosis": record,
	})
}

// parseMultipartSubmit reads the form fields and the optional image. The
// returned func closes the image and is never nil.
func (s *Server) parseMultipartSubmit(c *gin.Context) (*service.SubmitRequest, func(), error) {
	noop := func() {}

	if limit := s.cfg.Storage.MaxUploadBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, fmt.Errorf("request body: %w", storage.ErrTooLarge)
		}
		return nil, noop, domain.NewValidationError("body", "Invalid multipart form", err.Error())
	}

	req := &service.SubmitRequest{
		Type:        formValue(form, "type"),
		SpeciesName: formValue(form, "speciesName"),
		Symptoms:    formSymptoms(form),
	}

	if raw := formValue(form, "temperature"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, noop, domain.NewValidationError("temperature", "Temperature must be a number", raw)
		}
		req.Temperature = &t
	}
	if notes := formValue(form, "notes"); notes != "" {
		req.Notes = &notes
	}
	if location := formValue(form, "location"); location != "" {
		req.Location = &location
	}

	files := form.File["image"]
	if len(files) == 0 {
		return req, noop, nil
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, noop, domain.NewValidationError("image", "Unreadable image upload", err.Error())
	}
	req.Image = &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}

	return req, func() { file.Close() }, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// formSymptoms accepts repeated symptoms fields, symptoms[] fields or one
// field holding a JSON array.
func formSymptoms(form *multipart.Form) []string {
	values := append([]string{}, form.Value["symptoms"]...)
	values = append(values, form.Value["symptoms[]"]...)

	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var decoded []string
		if err := json.Unmarshal([]byte(values[0]), &decoded); err == nil {
			return decoded
		}
	}
	return values
}

func (s *Server) handleUpdateSymptoms(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var body symptomsBody
	if !bindJSON(c, &body) {
		return
	}

	detail, err := s.services.Diagnosis.UpdateSymptoms(c.Request.Context(), c.Param("id"), userID, body.Symptoms)
	if err != nil {
		fail(c, notFoundMessage(err, "Diagnosis not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Diagnosis updated successfully",
		"diagnosis":      detail.Diagnosis,
		"diseaseDetails": detail.DiseaseDetails,
	})
}

func (s *Server) handleDiagnosisHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	records, err := s.services.Diagnosis.ListForUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	if records == nil {
		records = []*domain.DiagnosisRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"diagnoses": records})
}

func (s *Server) handleGetDiagnosis(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	detail, err := s.services.Diagnosis.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		fail(c, notFoundMessage(err, "Diagnosis not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"diagnosis":      detail.Diagnosis,
		"diseaseDetails": detail.DiseaseDetails,
		"review":         detail.Review,
	})
}

func (s *Server) handleReviewQueue(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	records, err := s.services.Diagnosis.ReviewQueue(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	if records == nil {
		records = []*domain.DiagnosisRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"diagnoses": records,
		"count":     len(records),
	})
}

func (s *Server) handleSubmitReview(c *gin.Context) {
	reviewerID, ok := currentUser(c)
	if !ok {
		return
	}

	var body reviewBody
	if !bindJSON(c, &body) {
		return
	}

	review, err := s.services.Diagnosis.SubmitReview(c.Request.Context(), c.Param("id"), reviewerID, body.ExpertAdvice, body.TreatmentPlan)
	if err != nil {
		fail(c, notFoundMessage(err, "Diagnosis not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Review saved successfully",
		"review":  review,
	})
}

func notFoundMessage(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return middleware.WithMessage(err, message)
	}
	return err
}
