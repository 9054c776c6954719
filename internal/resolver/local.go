package resolver

import (
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/dproxy/dproxy/internal/server"
)

const indexFile = "index.html"

type localStage struct {
	root string
}

// NewLocalStage 在静态根目录下查找请求路径对应的文件。
func NewLocalStage(root string) Stage {
	return &localStage{root: root}
}

func (s *localStage) Name() server.Stage { return server.StageLocal }

// Resolve 仅处理 GET/HEAD；找不到文件、路径含隐藏段或无法解码时放行给下一阶段。
func (s *localStage) Resolve(c fiber.Ctx) (Result, error) {
	if c.Method() != http.MethodGet && c.Method() != http.MethodHead {
		return Continue, nil
	}

	rawPath := c.Path()
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return Continue, nil
	}
	clean := path.Clean("/" + decoded)
	if hasHiddenSegment(clean) {
		return Continue, nil
	}

	full := filepath.Join(s.root, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil {
		return Continue, nil
	}

	if info.IsDir() {
		index := filepath.Join(full, indexFile)
		if st, err := os.Stat(index); err != nil || st.IsDir() {
			return Continue, nil
		}
		if !strings.HasSuffix(rawPath, "/") {
			server.Annotate(c, server.StageLocal, "")
			location := rawPath + "/"
			if qs := c.Request().URI().QueryString(); len(qs) > 0 {
				location += "?" + string(qs)
			}
			c.Set(fiber.HeaderLocation, location)
			return Handled, c.SendStatus(fiber.StatusMovedPermanently)
		}
		full = index
	}

	server.Annotate(c, server.StageLocal, "")
	return Handled, c.SendFile(full)
}

func hasHiddenSegment(clean string) bool {
	for _, segment := range strings.Split(clean, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
