// FILE: internal/controller/archive_controller.go
package controller

import (
	"errors"
	"mime/multipart"
	"strings"

	"heritage-archive-be/internal/dto"
	"heritage-archive-be/internal/pkg/serverutils"
	"heritage-archive-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IArchiveController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Ingest(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type archiveController struct {
	service service.IArchiveService
}

func NewArchiveController(service service.IArchiveService) IArchiveController {
	return &archiveController{service: service}
}

func (c *archiveController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/archives")
	h.Get("/", c.List)
	h.Get("/:id", c.Show)
	h.Post("/", jwtMiddleware, c.Ingest)
}

func (c *archiveController) Ingest(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form expected")
	}

	req := dto.IngestArchiveRequest{
		Title:       strings.TrimSpace(first(form.Value["title"])),
		Description: first(form.Value["description"]),
		MediaTypes:  formList(form, "media_types"),
		Tags:        formList(form, "tags"),
		Dates:       formList(form, "dates"),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	headers := append(form.File["files"], form.File["files[]"]...)
	files := make([]dto.IngestFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			return fiber.NewError(fiber.StatusBadRequest, "unreadable file: "+fh.Filename)
		}
		files = append(files, dto.IngestFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	defer closeAll(files)

	res, err := c.service.Ingest(ctx.UserContext(), &req, files)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Archive ingested", res))
}

func (c *archiveController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid archive id"))
	}

	res, err := c.service.Show(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrArchiveNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "archive not found"))
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Archive retrieved", res))
}

func (c *archiveController) List(ctx *fiber.Ctx) error {
	var req dto.ListArchivesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Archives retrieved", res))
}

// formList accepts both "key" and "key[]" and drops blanks.
func formList(form *multipart.Form, key string) []string {
	var out []string
	for _, k := range []string{key, key + "[]"} {
		for _, v := range form.Value[k] {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func closeAll(files []dto.IngestFile) {
	for _, f := range files {
		if closer, ok := f.Body.(multipart.File); ok {
			_ = closer.Close()
		}
	}
}
