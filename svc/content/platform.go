package content

// Platform identifies a social network target.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
)

func (p Platform) String() string {
	return string(p)
}

// Valid reports whether the platform is one of the supported networks.
func (p Platform) Valid() bool {
	switch p {
	case PlatformFacebook, PlatformInstagram, PlatformLinkedIn, PlatformTwitter, PlatformTikTok:
		return true
	}
	return false
}

// MaxContentLength returns the platform's post length cap in characters.
// Used by generation validation before anything is persisted.
func (p Platform) MaxContentLength() int {
	switch p {
	case PlatformTwitter:
		return 280
	case PlatformTikTok:
		return 2200
	case PlatformInstagram:
		return 2200
	case PlatformLinkedIn:
		return 3000
	default:
		return 5000
	}
}
