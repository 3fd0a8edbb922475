package enums

import "fmt"

// DownloadLinkStatus tracks issued template download links.
type DownloadLinkStatus string

const (
	DownloadLinkStatusActive    DownloadLinkStatus = "active"
	DownloadLinkStatusExpired   DownloadLinkStatus = "expired"
	DownloadLinkStatusExhausted DownloadLinkStatus = "exhausted"
	DownloadLinkStatusRevoked   DownloadLinkStatus = "revoked"
)

var validDownloadLinkStatuses = []DownloadLinkStatus{
	DownloadLinkStatusActive,
	DownloadLinkStatusExpired,
	DownloadLinkStatusExhausted,
	DownloadLinkStatusRevoked,
}

// String implements fmt.Stringer.
func (d DownloadLinkStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DownloadLinkStatus.
func (d DownloadLinkStatus) IsValid() bool {
	for _, candidate := range validDownloadLinkStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDownloadLinkStatus converts raw input into a DownloadLinkStatus.
func ParseDownloadLinkStatus(value string) (DownloadLinkStatus, error) {
	for _, candidate := range validDownloadLinkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid download link status %q", value)
}
