package service

import (
	"time"

	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/repository"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toProfileResponse(p *model.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:        p.ProfileID,
		UserID:    p.UserID,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		UserType:  string(p.UserType),
		CreatedAt: formatTime(p.CreatedAt),
	}
}

func toLanguageResponse(l *model.Language) dto.LanguageResponse {
	return dto.LanguageResponse{ID: l.LanguageID, Code: l.Code, Name: l.Name}
}

func toLanguagePtr(l *model.Language) *dto.LanguageResponse {
	if l == nil {
		return nil
	}
	r := toLanguageResponse(l)
	return &r
}

func toReputation(s repository.RatingStats) dto.ReputationResponse {
	return dto.ReputationResponse{Average: s.Average, Count: s.Count}
}

func toRequestResponse(r *model.TranslationRequest) dto.RequestResponse {
	resp := dto.RequestResponse{
		ID:               r.RequestID,
		ClientID:         r.ClientID,
		Title:            r.Title,
		Description:      r.Description,
		RequestType:      string(r.RequestType),
		SourceLanguageID: r.SourceLanguageID,
		TargetLanguageID: r.TargetLanguageID,
		SourceLanguage:   toLanguagePtr(r.SourceLanguage),
		TargetLanguage:   toLanguagePtr(r.TargetLanguage),
		ScheduledDate:    formatTimePtr(r.ScheduledDate),
		DurationHours:    r.DurationHours,
		LocationDetails:  r.LocationDetails,
		Budget:           r.Budget,
		Status:           string(r.Status),
		DocumentURL:      r.DocumentURL,
		Version:          r.Version,
		CreatedAt:        formatTime(r.CreatedAt),
		UpdatedAt:        formatTime(r.UpdatedAt),
	}
	if r.LocationType != nil {
		lt := string(*r.LocationType)
		resp.LocationType = &lt
	}
	if r.Client != nil {
		resp.ClientName = r.Client.FullName
	}
	return resp
}

func toAssignmentResponse(a *model.TranslationAssignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:               a.AssignmentID,
		RequestID:        a.RequestID,
		TranslatorID:     a.TranslatorID,
		Status:           string(a.Status),
		AcceptedAt:       formatTimePtr(a.AcceptedAt),
		CompletedAt:      formatTimePtr(a.CompletedAt),
		ClientRating:     a.ClientRating,
		TranslatorRating: a.TranslatorRating,
		ClientReview:     a.ClientReview,
		TranslatorReview: a.TranslatorReview,
		Version:          a.Version,
		CreatedAt:        formatTime(a.CreatedAt),
	}
	if a.Translator != nil {
		resp.TranslatorName = a.Translator.FullName
	}
	if a.Request != nil {
		req := toRequestResponse(a.Request)
		resp.Request = &req
	}
	return resp
}
