package ingest

import (
	"net/url"
)

// ResolveVideoID derives the canonical video identifier from either a
// direct id or a watch URL's "v" query parameter. It performs no I/O, so
// bad references are rejected before any download work starts.
func ResolveVideoID(videoID, videoURL string) (string, error) {
	if videoID != "" {
		return videoID, nil
	}

	if videoURL == "" {
		return "", NewError(KindInvalidReference, "either videoId or videoUrl is required")
	}

	u, err := url.Parse(videoURL)
	if err != nil {
		return "", WrapError(KindInvalidReference, "videoUrl is not a valid URL", err)
	}

	id := u.Query().Get("v")
	if id == "" {
		return "", NewError(KindInvalidReference, "videoUrl carries no v parameter")
	}

	return id, nil
}
