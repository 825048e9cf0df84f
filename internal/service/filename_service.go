package service

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/zacmb/contentsched/internal/blob"
	"github.com/zacmb/contentsched/internal/models"
)

var (
	unsafeChars   = regexp.MustCompile(`[^\w\s-]`)
	slashReplacer = strings.NewReplacer("/", "-", "\\", "-")
)

// Extensions trusted when found in the asset's original filename.
var nameExtAllowList = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {},
	"mp4": {}, "mov": {}, "mp3": {}, "wav": {},
}

// Extensions trusted when parsed out of the asset URL itself. Audio is
// deliberately absent: bare URLs lie about audio often enough that the
// default wins.
var urlExtAllowList = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {},
	"mp4": {}, "mov": {},
}

var mimeToExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/x-msvideo": ".avi",
	"audio/mpeg":      ".mp3",
	"audio/wav":       ".wav",
}

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
}

// ResolveExtension picks a file extension for an asset, in priority order:
// the extension embedded in the reported original filename, the MIME type
// mapping, the extension parsed from the asset URL, then ".mp4".
func ResolveExtension(meta *blob.Metadata, rawURL string) string {
	if meta != nil {
		if ext, ok := extFromName(meta.Name, nameExtAllowList); ok {
			return ext
		}
		if ext, ok := mimeToExt[meta.MimeType]; ok {
			return ext
		}
	}

	parts := strings.Split(rawURL, "/")
	if len(parts) > 0 {
		if ext, ok := extFromName(parts[len(parts)-1], urlExtAllowList); ok {
			return ext
		}
	}

	return ".mp4"
}

func extFromName(name string, allowed map[string]struct{}) (string, bool) {
	if !strings.Contains(name, ".") {
		return "", false
	}
	pieces := strings.Split(name, ".")
	ext := strings.ToLower(pieces[len(pieces)-1])
	if _, ok := allowed[ext]; ok {
		return "." + ext, true
	}
	return "", false
}

// DerivePath builds the deterministic relative path for a candidate's asset:
// "<subfolder>/<date>_<account>_<caption-slug><ext>". ordinal is the record's
// 1-based batch position, used only for the empty-caption fallback.
func DerivePath(rec *models.CandidateRecord, account, ext string, ordinal int) string {
	date := sanitize(slashReplacer.Replace(rec.ScheduleDate))
	safeAccount := sanitize(account)

	slug := captionSlug(rec.Caption)
	if slug == "" {
		slug = fmt.Sprintf("post-%d", ordinal)
	}

	subfolder := "reels"
	if _, ok := imageExts[ext]; ok {
		subfolder = "images"
	}

	return path.Join(subfolder, fmt.Sprintf("%s_%s_%s%s", date, safeAccount, slug, ext))
}

func captionSlug(caption string) string {
	cleaned := sanitize(strings.ToLower(caption))
	words := strings.Fields(cleaned)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, "-")
}

func sanitize(s string) string {
	return unsafeChars.ReplaceAllString(s, "")
}
