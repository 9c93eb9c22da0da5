package media

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gabriel-vasile/mimetype"
	"github.com/vhagen/archive-curator/internal/util"
)

// Info describes a file about to be attached to a catalog record
type Info struct {
	Path     string
	Size     int64
	MimeType string
	// FileType is a coarse class derived from the MIME type:
	// image, audio, video, document or other
	FileType string
	// AudioTags holds embedded tags for audio files, nil otherwise
	AudioTags map[string]string
}

// ProbeFile stats a file and sniffs its MIME type from content. Audio
// files additionally get their embedded tags read, so an attached
// oral-history recording carries its own title and speaker into the
// catalog.
func ProbeFile(path string) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat media file: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect MIME type: %w", err)
	}

	info := &Info{
		Path:     path,
		Size:     stat.Size(),
		MimeType: mtype.String(),
		FileType: typeFromMime(mtype.String()),
	}

	if info.FileType == "audio" {
		tags, err := readAudioTags(path)
		if err != nil {
			// Untagged audio is still attachable
			util.DebugLog("No readable tags in %s: %v", path, err)
		} else {
			info.AudioTags = tags
		}
	}

	return info, nil
}

// TagsJSON returns the audio tags as a JSON object for the record
// metadata blob, or "" when there are none
func (i *Info) TagsJSON() string {
	if len(i.AudioTags) == 0 {
		return ""
	}
	data, err := json.Marshal(i.AudioTags)
	if err != nil {
		return ""
	}
	return string(data)
}

func typeFromMime(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "application/pdf"), strings.HasPrefix(mime, "text/"):
		return "document"
	default:
		return "other"
	}
}

// readAudioTags extracts the embedded tags of an audio file
func readAudioTags(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	tags := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			tags[key] = value
		}
	}

	set("format", string(m.Format()))
	set("title", m.Title())
	set("artist", m.Artist())
	set("album", m.Album())
	set("genre", m.Genre())
	if m.Year() > 0 {
		tags["year"] = fmt.Sprintf("%d", m.Year())
	}

	if len(tags) == 0 {
		return nil, fmt.Errorf("no tags present")
	}

	return tags, nil
}
