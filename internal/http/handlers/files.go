package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/filez-project/filez/internal/http/request"
	"github.com/filez-project/filez/internal/http/response"
	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

type createFileRequest struct {
	Name           string `json:"name" validate:"required"`
	MimeType       string `json:"mime_type" validate:"required"`
	StorageQuotaID string `json:"storage_quota_id" validate:"required,uuid"`
}

type createFileResponse struct {
	File         model.File        `json:"file"`
	FirstVersion model.FileVersion `json:"first_version"`
}

// CreateFile implements POST /api/files/create.
func (d *Deps) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req createFileRequest
	if err := request.Bind(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if !d.authorize(w, r, model.ResourceFile, nil, model.ActionFilesCreate) {
		return
	}
	ai := authInfo(r)
	quotaID, err := model.ParseID(req.StorageQuotaID)
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "storage_quota_id", Reason: "not a uuid"})
		return
	}
	ownerID := model.NilID
	if ai.RequestingUser != nil {
		ownerID = ai.RequestingUser.ID
	}
	file, version, err := d.Filez.CreateFile(r.Context(), ownerID, req.Name, req.MimeType, quotaID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, createFileResponse{File: file, FirstVersion: version})
}

// DeleteFile implements DELETE /api/files/delete/{file_id}.
func (d *Deps) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := model.ParseID(chi.URLParam(r, "file_id"))
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "file_id", Reason: "not a uuid"})
		return
	}
	if !d.authorize(w, r, model.ResourceFile, []model.ID{fileID}, model.ActionFilesDelete) {
		return
	}
	if err := d.Filez.DeleteFile(r.Context(), fileID); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// GetFileMetadata implements the metadata aggregate read supplemented from
// original_source's get_metadata (SPEC_FULL §4.5).
func (d *Deps) GetFileMetadata(w http.ResponseWriter, r *http.Request) {
	fileID, err := model.ParseID(chi.URLParam(r, "file_id"))
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "file_id", Reason: "not a uuid"})
		return
	}
	if !d.authorize(w, r, model.ResourceFile, []model.ID{fileID}, model.ActionFilesGet) {
		return
	}
	meta, err := d.Filez.GetMetadata(r.Context(), fileID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, meta)
}

type attachTagRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// AttachTag implements the tag-attach endpoint supplementing spec §3's
// tag-interning requirement.
func (d *Deps) AttachTag(w http.ResponseWriter, r *http.Request) {
	fileID, err := model.ParseID(chi.URLParam(r, "file_id"))
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "file_id", Reason: "not a uuid"})
		return
	}
	var req attachTagRequest
	if err := request.Bind(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if !d.authorize(w, r, model.ResourceFile, []model.ID{fileID}, model.ActionFilesUpdate) {
		return
	}
	ai := authInfo(r)
	createdBy := model.NilID
	if ai.RequestingUser != nil {
		createdBy = ai.RequestingUser.ID
	}
	if err := d.Filez.AttachTag(r.Context(), fileID, req.Key, req.Value, createdBy); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}
