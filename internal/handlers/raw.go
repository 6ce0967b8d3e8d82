package handlers

import (
	"mime"
	"net/url"
	"path"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/evcms/internal/cmserr"
	"github.com/jjenkins/evcms/internal/store"
)

// RawHandler serves the bytes of a repository file
func RawHandler(content *store.ContentStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rel, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return cmserr.BadRequest("invalid path")
		}

		f, err := content.Read(c.UserContext(), rel)
		if err != nil {
			return err
		}

		contentType := mime.TypeByExtension(path.Ext(f.Name))
		if contentType == "" {
			contentType = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderETag, `"`+f.Tag+`"`)
		return c.Send(f.Data)
	}
}
