// Decodes record write payloads sent as JSON or multipart/form-data.

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/maruel/storefront/internal/blob"
	"github.com/maruel/storefront/internal/server/dto"
	"github.com/maruel/storefront/internal/storage"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 1 << 20

// payload is a decoded write request. Close releases the upload.
type payload struct {
	fields storage.Record
	upload *blob.Upload
	file   multipart.File
	form   *multipart.Form
}

func (p *payload) Close() {
	if p.file != nil {
		_ = p.file.Close()
	}
	if p.form != nil {
		_ = p.form.RemoveAll()
	}
}

// readPayload decodes the request body. In multipart bodies the imageField
// file part becomes the upload and every other part is a string field.
func readPayload(r *http.Request, imageField string, maxUpload int64) (*payload, error) {
	ct := r.Header.Get("Content-Type")
	mediaType := "application/json"
	if ct != "" {
		var err error
		if mediaType, _, err = mime.ParseMediaType(ct); err != nil {
			return nil, dto.InvalidFormat("invalid Content-Type")
		}
	}
	switch mediaType {
	case "application/json":
		return readJSON(r)
	case "multipart/form-data":
		return readMultipart(r, imageField, maxUpload)
	}
	return nil, dto.InvalidFormat("unsupported Content-Type " + mediaType)
}

func readJSON(r *http.Request) (*payload, error) {
	p := &payload{fields: storage.Record{}}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	if len(body) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(body, &p.fields); err != nil || p.fields == nil {
		return nil, dto.BadRequest("Invalid request body")
	}
	return p, nil
}

func readMultipart(r *http.Request, imageField string, maxUpload int64) (*payload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, bodyError(err)
	}
	p := &payload{fields: storage.Record{}, form: r.MultipartForm}
	for k, v := range r.MultipartForm.Value {
		if len(v) == 0 {
			continue
		}
		// An empty file input is sent as a text part with the image name.
		if k == imageField && strings.TrimSpace(v[0]) == "" {
			continue
		}
		p.fields[k] = v[0]
	}
	if imageField == "" {
		return p, nil
	}
	files := r.MultipartForm.File[imageField]
	if len(files) == 0 {
		return p, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		p.Close()
		return nil, dto.InternalWithError("failed to open upload", err)
	}
	p.file = f
	contentType, err := uploadType(fh, f)
	if err != nil {
		p.Close()
		return nil, dto.InternalWithError("failed to read upload", err)
	}
	if err := blob.CheckImage(fh.Filename, contentType, fh.Size, maxUpload); err != nil {
		p.Close()
		return nil, dto.InvalidFormat(err.Error())
	}
	p.upload = &blob.Upload{Data: f, Size: fh.Size, ContentType: contentType, Filename: fh.Filename}
	return p, nil
}

// uploadType returns the declared content type of the part, sniffing the
// data when the client sent none.
func uploadType(fh *multipart.FileHeader, f multipart.File) (string, error) {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}
	var buf [512]byte
	n, err := io.ReadFull(f, buf[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return dto.PayloadTooLarge(mbe.Limit)
	}
	return dto.BadRequest("Failed to read request body").Wrap(err)
}
