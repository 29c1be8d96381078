package version

// Set at build time:
//
//	-ldflags "-X github.com/JustinTDCT/flixcatalog/internal/version.Version=1.4.0"
var (
	Version = "dev"
	Commit  = ""
)

func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
