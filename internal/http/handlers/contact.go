package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/contactos-backend/internal/domain/contacts"
	"github.com/yungbote/contactos-backend/internal/http/response"
	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/services"
)

type ContactHandler struct {
	log      *logger.Logger
	contacts services.ContactService
	avatars  services.AvatarService
	exports  services.ExportService
}

func NewContactHandler(log *logger.Logger, contactService services.ContactService, avatarService services.AvatarService, exportService services.ExportService) *ContactHandler {
	return &ContactHandler{
		log:      log.With("handler", "ContactHandler"),
		contacts: contactService,
		avatars:  avatarService,
		exports:  exportService,
	}
}

var contactFormFields = []string{
	"nombre", "telefono", "email", "direccion", "lugar",
	"tipo_contacto", "tipo_contacto_otro", "detalle_tipo", "detalle_tipo_otro",
}

// contactJSON mirrors the form fields for application/json bodies.
type contactJSON struct {
	Nombre           *string `json:"nombre"`
	Telefono         *string `json:"telefono"`
	Email            *string `json:"email"`
	Direccion        *string `json:"direccion"`
	Lugar            *string `json:"lugar"`
	TipoContacto     *string `json:"tipo_contacto"`
	TipoContactoOtro *string `json:"tipo_contacto_otro"`
	DetalleTipo      *string `json:"detalle_tipo"`
	DetalleTipoOtro  *string `json:"detalle_tipo_otro"`
}

// bindContact reads a multipart/urlencoded form or a JSON body. Only keys that
// are present end up non-nil in the result.
func bindContact(c *gin.Context) (services.ContactFields, *services.ImageUpload, func(), error) {
	noop := func() {}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body contactJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			return services.ContactFields{}, nil, noop, bindError(err)
		}
		return services.ContactFields(body), nil, noop, nil
	}

	values := make(map[string]*string, len(contactFormFields))
	for _, name := range contactFormFields {
		if v, ok := c.GetPostForm(name); ok {
			v := v
			values[name] = &v
		}
	}
	fields := services.ContactFields{
		Nombre:           values["nombre"],
		Telefono:         values["telefono"],
		Email:            values["email"],
		Direccion:        values["direccion"],
		Lugar:            values["lugar"],
		TipoContacto:     values["tipo_contacto"],
		TipoContactoOtro: values["tipo_contacto_otro"],
		DetalleTipo:      values["detalle_tipo"],
		DetalleTipoOtro:  values["detalle_tipo_otro"],
	}

	fh, err := c.FormFile("imagen")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return fields, nil, noop, nil
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fields, nil, noop, apierr.PayloadTooLarge(err)
		}
		return fields, nil, noop, apierr.BadRequest("invalid_upload", err)
	}
	f, err := fh.Open()
	if err != nil {
		return fields, nil, noop, apierr.BadRequest("invalid_upload", err)
	}
	return fields, &services.ImageUpload{Filename: fh.Filename, Size: fh.Size, Body: f}, func() { _ = f.Close() }, nil
}

// POST /api/contactos
func (h *ContactHandler) Create(c *gin.Context) {
	fields, img, closeFn, err := bindContact(c)
	defer closeFn()
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	contact, err := h.contacts.Create(c.Request.Context(), fields, img)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, contact)
}

// GET /api/contactos
func (h *ContactHandler) List(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	page, err := h.contacts.List(c.Request.Context(), params)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, page)
}

func listParams(c *gin.Context) (services.ListContactsParams, error) {
	params := services.ListContactsParams{
		Query:        c.Query("q"),
		TipoContacto: c.Query("tipo_contacto"),
		DetalleTipo:  c.Query("detalle_tipo"),
	}
	var violations []apierr.FieldError
	for _, name := range []string{"skip", "limit"} {
		raw, ok := c.GetQuery(name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			violations = append(violations, apierr.FieldError{Field: name, Message: "Debe ser un número entero"})
			continue
		}
		if name == "skip" {
			params.Skip = &n
		} else {
			params.Limit = &n
		}
	}
	if len(violations) > 0 {
		return params, apierr.Validation(violations)
	}
	return params, nil
}

// GET /api/contactos/:id
func (h *ContactHandler) Get(c *gin.Context) {
	contact, err := h.contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, contact)
}

// PUT|PATCH /api/contactos/:id
func (h *ContactHandler) Update(c *gin.Context) {
	fields, img, closeFn, err := bindContact(c)
	defer closeFn()
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	contact, err := h.contacts.Update(c.Request.Context(), c.Param("id"), fields, img)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, contact)
}

// DELETE /api/contactos/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	if _, err := h.contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/contactos/:id/avatar
func (h *ContactHandler) Avatar(c *gin.Context) {
	raw, err := h.avatars.ContactAvatar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/png", raw)
}

// GET /api/contactos/export
func (h *ContactHandler) Export(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	raw, err := h.exports.ContactsXLSX(c.Request.Context(), params)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	name := fmt.Sprintf("contactos_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", raw)
}

type taxonomyEntry struct {
	TipoContacto contacts.ContactType      `json:"tipo_contacto"`
	Detalles     []contacts.DetailType     `json:"detalles"`
	Categorias   []contacts.RatingCategory `json:"categorias"`
}

// GET /api/contactos/taxonomy
func (h *ContactHandler) Taxonomy(c *gin.Context) {
	out := make([]taxonomyEntry, 0, len(contacts.ContactTypes()))
	for _, ct := range contacts.ContactTypes() {
		details, err := contacts.AllowedDetailTypes(ct)
		if err != nil {
			response.RespondAPIError(c, h.log, err)
			return
		}
		categories, err := contacts.AllowedRatingCategories(ct)
		if err != nil {
			response.RespondAPIError(c, h.log, err)
			return
		}
		out = append(out, taxonomyEntry{TipoContacto: ct, Detalles: details, Categorias: categories})
	}
	response.RespondOK(c, gin.H{"tipos": out})
}
