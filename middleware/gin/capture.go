package gin

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

// capture is the response interceptor spec.md §4.4 calls for: it embeds the
// real gin.ResponseWriter for interface satisfaction (Hijack, Flush,
// CloseNotify, Pusher all delegate there) but buffers Write/WriteHeader
// locally instead of flushing to the connection, so the gate can replay the
// exact same bytes on an idempotent retry without ever double-sending.
type capture struct {
	gin.ResponseWriter
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func (c *capture) Header() http.Header {
	if c.header == nil {
		c.header = make(http.Header)
	}
	return c.header
}

func (c *capture) Write(b []byte) (int, error) {
	if c.statusCode == 0 {
		c.statusCode = http.StatusOK
	}
	return c.body.Write(b)
}

func (c *capture) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

func (c *capture) WriteHeader(code int) {
	if c.statusCode == 0 {
		c.statusCode = code
	}
}

func (c *capture) WriteHeaderNow() {}

func (c *capture) Status() int { return c.status() }

func (c *capture) Size() int { return c.body.Len() }

func (c *capture) Written() bool { return c.statusCode != 0 }

func (c *capture) status() int {
	if c.statusCode == 0 {
		return http.StatusOK
	}
	return c.statusCode
}
