package features

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/char5742/dualpad-cursors/internal/config"
	"github.com/char5742/dualpad-cursors/internal/cursor"
)

const inputDir = "/dev/input"

// DiscoverSources は/dev/input以下からポインタらしきデバイスを列挙する
// 列挙中のエラーは握りつぶしてログに残すだけで、この関数が失敗することはない
func DiscoverSources() []DeviceSource {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		log.Printf("%s の読み取りに失敗しました: %v", inputDir, err)
		return nil
	}

	var sources []DeviceSource
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}
		path := filepath.Join(inputDir, entry.Name())
		if source, ok := probeSource(path); ok {
			sources = append(sources, source)
		}
	}
	return sources
}

// SourcesFromEnv は環境変数による明示的なデバイス指定を読み取る
// 2番目の戻り値は環境変数が設定されていたかどうかを表す
// 設定されている場合、すべてスキップされても空のリストを返すため、
// 呼び出し側は未設定との区別がつき、自動検出へは落ちない
func SourcesFromEnv() ([]DeviceSource, bool) {
	raw := strings.TrimSpace(os.Getenv(config.EnvSources))
	if raw == "" {
		return nil, false
	}
	return SourcesFromPaths(parseSourceList(raw)), true
}

// SourcesFromPaths は明示指定されたパスの一覧をデバイス情報へ解決する
// 開けないもの・ポインタ能力のないものは警告を出してスキップする
func SourcesFromPaths(paths []string) []DeviceSource {
	sources := make([]DeviceSource, 0, len(paths))
	for _, path := range paths {
		source, ok := probeSource(path)
		if !ok {
			log.Printf("%s をスキップします (ポインタデバイスでないか読み取れません)", path)
			continue
		}
		sources = append(sources, source)
	}
	return sources
}

// parseSourceList はカンマ区切りのパス指定を分解する
func parseSourceList(raw string) []string {
	var paths []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			paths = append(paths, entry)
		}
	}
	return paths
}

// probeSource はデバイスノードを開いて能力と名前を調べる
func probeSource(path string) (DeviceSource, bool) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return DeviceSource{}, false
	}
	defer unix.Close(fd)

	caps, err := probeCaps(fd)
	if err != nil || !caps.pointerLike() {
		return DeviceSource{}, false
	}

	name := deviceName(fd)
	source := DeviceSource{
		Path:       path,
		Name:       name,
		CursorHint: guessCursorHint(name),
	}
	log.Printf("候補デバイス: %s (%s) caps=%s", name, path, caps)
	return source, true
}

// guessCursorHint はデバイス名から左右の割り当てを推測する
func guessCursorHint(name string) *cursor.CursorId {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "left") {
		hint := cursor.Left
		return &hint
	}
	if strings.Contains(lower, "right") {
		hint := cursor.Right
		return &hint
	}
	return nil
}
