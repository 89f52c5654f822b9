package chatmedia

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/AzielCF/az-wabot/schedule/domain"
)

var mp4Box = []byte("ftyp")

// DetectMimeType sniffs data and checks it matches kind. Videos in ISO media
// containers that the sniffer does not name (mov, 3gp) are reported as video/mp4.
func DetectMimeType(kind domain.Kind, data []byte) (string, error) {
	detected := http.DetectContentType(data)
	base := strings.TrimSpace(strings.Split(detected, ";")[0])

	switch kind {
	case domain.KindImage:
		if strings.HasPrefix(base, "image/") {
			return base, nil
		}
	case domain.KindVideo:
		if strings.HasPrefix(base, "video/") {
			return base, nil
		}
		if base == "application/octet-stream" && len(data) >= 8 && bytes.Equal(data[4:8], mp4Box) {
			return "video/mp4", nil
		}
	default:
		return "", pkgError.ValidationError(fmt.Sprintf("unsupported media kind %q", kind))
	}
	return "", pkgError.ValidationError(fmt.Sprintf("the file is %s, not a supported %s", base, kind))
}
