package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/filez-project/filez/internal/http/request"
	"github.com/filez-project/filez/internal/http/response"
	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/storageprovider"
)

type createFileVersionRequest struct {
	FileID         string  `json:"file_id" validate:"required,uuid"`
	AppID          string  `json:"app_id" validate:"required,uuid"`
	SizeBytes      int64   `json:"size_bytes" validate:"gte=0"`
	ExpectedSHA256 *string `json:"expected_sha256" validate:"omitempty,len=64,hexadecimal"`
	StorageQuotaID string  `json:"storage_quota_id" validate:"required,uuid"`
}

// CreateFileVersion implements POST /api/file_versions/create.
func (d *Deps) CreateFileVersion(w http.ResponseWriter, r *http.Request) {
	var req createFileVersionRequest
	if err := request.Bind(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	fileID, err1 := model.ParseID(req.FileID)
	appID, err2 := model.ParseID(req.AppID)
	quotaID, err3 := model.ParseID(req.StorageQuotaID)
	if err1 != nil || err2 != nil || err3 != nil {
		response.Error(w, errtypes.Validation{Field: "file_id/app_id/storage_quota_id", Reason: "not a uuid"})
		return
	}
	if !d.authorize(w, r, model.ResourceFileVersion, []model.ID{fileID}, model.ActionFileVersionsCreate) {
		return
	}
	version, err := d.Filez.CreateVersion(r.Context(), fileID, appID, req.SizeBytes, req.ExpectedSHA256, quotaID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, map[string]model.FileVersion{"version": version})
}

func versionIDParam(r *http.Request) (model.ID, error) {
	return model.ParseID(chi.URLParam(r, "id"))
}

// HeadFileVersionContent implements HEAD /api/file_versions/{id}/content,
// reporting the TUS-style headers the Content Upload Protocol uses to
// tell a client where to resume (spec §4.6).
func (d *Deps) HeadFileVersionContent(w http.ResponseWriter, r *http.Request) {
	versionID, err := versionIDParam(r)
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "id", Reason: "not a uuid"})
		return
	}
	if !d.authorize(w, r, model.ResourceFileVersion, []model.ID{versionID}, model.ActionFileVersionsGet) {
		return
	}
	info, err := d.Upload.Head(r.Context(), versionID)
	if err != nil {
		response.Error(w, err)
		return
	}
	w.Header().Set("Upload-Offset", strconv.FormatInt(info.StoredBytes, 10))
	w.Header().Set("Upload-Length", strconv.FormatInt(info.DeclaredBytes, 10))
	w.Header().Set("Tus-Resumable", "1.0.0")
	w.WriteHeader(http.StatusOK)
}

// PatchFileVersionContent implements PATCH /api/file_versions/{id}/content.
func (d *Deps) PatchFileVersionContent(w http.ResponseWriter, r *http.Request) {
	versionID, err := versionIDParam(r)
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "id", Reason: "not a uuid"})
		return
	}
	if !d.authorize(w, r, model.ResourceFileVersion, []model.ID{versionID}, model.ActionFileVersionsContentUpload) {
		return
	}
	offset, err := strconv.ParseInt(r.Header.Get("Upload-Offset"), 10, 64)
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "Upload-Offset", Reason: "missing or not an integer"})
		return
	}
	stored, err := d.Upload.Patch(r.Context(), versionID, offset, r.Body)
	if err != nil {
		response.Error(w, err)
		return
	}
	w.Header().Set("Upload-Offset", strconv.FormatInt(stored, 10))
	w.Header().Set("Tus-Resumable", "1.0.0")
	w.WriteHeader(http.StatusNoContent)
}

// GetFileVersionContent implements GET /api/file_versions/{id}/content,
// with single-range support per spec §4.5 / RFC 7233.
func (d *Deps) GetFileVersionContent(w http.ResponseWriter, r *http.Request) {
	versionID, err := versionIDParam(r)
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "id", Reason: "not a uuid"})
		return
	}
	if !d.authorize(w, r, model.ResourceFileVersion, []model.ID{versionID}, model.ActionFileVersionsContentGet) {
		return
	}
	v, err := d.Store.GetFileVersion(r.Context(), versionID)
	if err != nil {
		response.Error(w, err)
		return
	}
	rng, err := parseRange(r.Header.Get("Range"))
	if err != nil {
		response.Error(w, err)
		return
	}
	rc, _, err := d.Filez.Download(r.Context(), v.FileID, v.VersionNumber, rng)
	if err != nil {
		response.Error(w, err)
		return
	}
	defer rc.Close()
	if rng != nil {
		w.WriteHeader(http.StatusPartialContent)
	}
	_, _ = io.Copy(w, rc)
}

// parseRange accepts a single "bytes=start-end" range per spec §5's
// "multi-range is rejected upstream" rule. An empty header means a full
// GET; any other unit, a multi-range or a malformed range is a Validation
// error.
func parseRange(header string) (*storageprovider.ByteRange, error) {
	if header == "" {
		return nil, nil
	}
	const prefix = "bytes="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return nil, errtypes.Validation{Field: "Range", Reason: "unsupported range unit"}
	}
	rangeExpr := header[len(prefix):]
	if commaIndex(rangeExpr) >= 0 {
		return nil, errtypes.Validation{Field: "Range", Reason: "multi-range not supported"}
	}
	dash := dashIndex(rangeExpr)
	if dash < 0 {
		return nil, errtypes.Validation{Field: "Range", Reason: "malformed range"}
	}
	startStr, endStr := rangeExpr[:dash], rangeExpr[dash+1:]
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return nil, errtypes.Validation{Field: "Range", Reason: "malformed start"}
	}
	end := int64(-1)
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, errtypes.Validation{Field: "Range", Reason: "malformed end"}
		}
	}
	return &storageprovider.ByteRange{Start: start, End: end}, nil
}

func commaIndex(s string) int {
	for i, c := range s {
		if c == ',' {
			return i
		}
	}
	return -1
}

func dashIndex(s string) int {
	for i, c := range s {
		if c == '-' {
			return i
		}
	}
	return -1
}
