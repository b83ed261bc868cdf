package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verdeleaf/storefront-backend/api/responses"
	"github.com/verdeleaf/storefront-backend/api/validators"
	mediasvc "github.com/verdeleaf/storefront-backend/internal/media"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

type mediaListResponse struct {
	Items      []models.Media `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type requestUploadPayload struct {
	FileName  string `json:"file_name" validate:"required"`
	MimeType  string `json:"mime_type" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"required,min=1"`
}

// AdminRequestUpload reserves a media row and signs a direct-PUT URL.
func AdminRequestUpload(svc *mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload requestUploadPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.RequestUpload(r.Context(), mediasvc.UploadInput{
			FileName:  payload.FileName,
			MimeType:  payload.MimeType,
			SizeBytes: payload.SizeBytes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ticket)
	}
}

// AdminConfirmUpload flips a pending row to ready and returns its public URL.
func AdminConfirmUpload(svc *mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.ConfirmUpload(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AdminListMedia lists uploads newest first.
func AdminListMedia(svc *mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, nextCursor, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mediaListResponse{Items: rows, NextCursor: nextCursor})
	}
}

// AdminDeleteMedia removes the object and its row.
func AdminDeleteMedia(svc *mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
