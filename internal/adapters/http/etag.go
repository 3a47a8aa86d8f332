package http

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware tags successful GET bodies with a weak ETag and answers a
// matching If-None-Match with 304. Handlers that set their own ETag keep it,
// and no-cache responses (light presets, readiness) are never tagged.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		resp := c.Response()
		if c.Method() != fiber.MethodGet || resp.StatusCode() != fiber.StatusOK {
			return nil
		}
		if strings.Contains(string(resp.Header.Peek(fiber.HeaderCacheControl)), "no-cache") {
			return nil
		}

		etag := string(resp.Header.Peek(fiber.HeaderETag))
		if etag == "" {
			body := resp.Body()
			if len(body) == 0 {
				return nil
			}
			etag = `W/"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
			c.Set(fiber.HeaderETag, etag)
		}

		if etagMatches(c.Get(fiber.HeaderIfNoneMatch), etag) {
			c.Status(fiber.StatusNotModified)
			resp.ResetBody()
		}
		return nil
	}
}

// etagMatches applies the weak comparison of If-None-Match, which may list
// several tags or be "*".
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == want {
			return true
		}
	}
	return false
}
