package resolver

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gofiber/fiber/v3"

	"github.com/dproxy/dproxy/internal/config"
	"github.com/dproxy/dproxy/internal/server"
)

type mapStage struct {
	root     string
	mappings []config.MappingEntry
}

// NewMapStage 按声明顺序匹配映射表，首个命中者生效。
func NewMapStage(root string, mappings []config.MappingEntry) Stage {
	return &mapStage{root: root, mappings: append([]config.MappingEntry(nil), mappings...)}
}

func (s *mapStage) Name() server.Stage { return server.StageMap }

// Resolve 命中后即终止：目标文件不存在时返回 404，不会继续查找本地或上游。
func (s *mapStage) Resolve(c fiber.Ctx) (Result, error) {
	reqPath := c.Path()
	for _, entry := range s.mappings {
		if !MatchRemote(entry.Remote, reqPath) {
			continue
		}
		server.Annotate(c, server.StageMap, " > "+entry.Local)
		target, err := s.localPath(entry.Local)
		if err != nil {
			return Handled, fiber.NewError(fiber.StatusNotFound, "mapped_file_not_found")
		}
		return Handled, c.SendFile(target)
	}
	return Continue, nil
}

// localPath 将相对路径拼接到静态根目录，并解析符号链接得到真实路径。
func (s *mapStage) localPath(local string) (string, error) {
	target := filepath.FromSlash(local)
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.root, target)
	}
	return filepath.EvalSymlinks(target)
}

// MatchRemote 判断请求路径是否命中映射的 remote：要么完全相等，
// 要么去掉前导斜杠后满足 glob（* 不跨越 /，** 可以）。
func MatchRemote(pattern, reqPath string) bool {
	if pattern == reqPath {
		return true
	}
	ok, err := doublestar.Match(strings.TrimPrefix(pattern, "/"), strings.TrimPrefix(reqPath, "/"))
	return err == nil && ok
}
