package request

import (
	"fmt"
	"regexp"
	"strings"
)

// APIHost is the provider host recognised in input-video URLs.
const APIHost = "generativelanguage.googleapis.com"

var bareIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ExtractFileID pulls the provider file id out of a reference in any of the
// accepted forms: a URL containing /files/<id>, the literal files/<id> form,
// or a bare id. Anything else is an error.
func ExtractFileID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty file reference")
	}

	if idx := strings.Index(ref, "files/"); idx >= 0 {
		id := ref[idx+len("files/"):]
		if cut := strings.IndexAny(id, "/?#"); cut >= 0 {
			id = id[:cut]
		}
		if !bareIDRe.MatchString(id) {
			return "", fmt.Errorf("invalid file id in reference %q", ref)
		}
		return id, nil
	}

	if bareIDRe.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("unrecognised file reference %q", ref)
}

// NormalizeVideoRef validates an extend-video input reference and normalizes
// it to the files/<id> form. Accepted: a URL containing the known API host,
// files/<id>, or a bare id.
func NormalizeVideoRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if strings.Contains(ref, "://") && !strings.Contains(ref, APIHost) {
		return "", fmt.Errorf("URL %q does not point at %s", ref, APIHost)
	}
	id, err := ExtractFileID(ref)
	if err != nil {
		return "", err
	}
	return "files/" + id, nil
}
