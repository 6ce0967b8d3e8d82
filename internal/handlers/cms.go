package handlers

import (
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/evcms/internal/cmserr"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/service"
	"github.com/jjenkins/evcms/internal/store"
)

// CMSHandler hands every CMS route to the router and writes its response
// verbatim
func CMSHandler(router *service.Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID, _ := c.Locals("requestid").(string)

		resp := router.Handle(c.UserContext(), service.Request{
			Method:    c.Method(),
			Path:      c.Path(),
			Body:      append([]byte(nil), c.Body()...),
			RequestID: requestID,
		})

		cache := "MISS"
		if resp.Cached {
			cache = "HIT"
		}
		c.Set("X-Cache", cache)
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Status(resp.Status).Send(resp.Body)
	}
}

// MediaUploadHandler stores a multipart "file" upload in the media folder.
// Every attempt is audited through the router.
func MediaUploadHandler(cms *service.CMS, router *service.Router, maxBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID, _ := c.Locals("requestid").(string)

		entry, target, err := receiveUpload(c, cms, maxBytes)
		status := fiber.StatusCreated
		if err != nil {
			status, _ = statusOf(err)
		}
		router.Record(c.UserContext(), service.Request{
			Method:    c.Method(),
			Path:      c.Path(),
			RequestID: requestID,
		}, service.UploadMediaAction, target, status, start)
		if err != nil {
			return err
		}

		router.Invalidate()
		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// receiveUpload validates and stores the upload, returning the path it was
// aimed at even when it fails
func receiveUpload(c *fiber.Ctx, cms *service.CMS, maxBytes int64) (*model.RepositoryEntry, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", cmserr.BadRequest("missing required parameter: file")
	}
	target := cms.MediaPathFor(fh.Filename)

	if fh.Size > maxBytes {
		return nil, target, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d byte upload limit", maxBytes))
	}
	if !store.IsImageMIME(fh.Header.Get(fiber.HeaderContentType)) {
		return nil, target, fiber.NewError(fiber.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported media type %q", fh.Header.Get(fiber.HeaderContentType)))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, target, cmserr.Internal(err, "failed to open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, target, cmserr.Internal(err, "failed to read upload")
	}
	if int64(len(data)) > maxBytes {
		return nil, target, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d byte upload limit", maxBytes))
	}

	entry, err := cms.UploadMedia(c.UserContext(), fh.Filename, data)
	if err != nil {
		return nil, target, err
	}
	return entry, entry.Path, nil
}
