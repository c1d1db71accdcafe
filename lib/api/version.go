package api

// Version is the SDK version. It is reported to the service through
// the "origin" tag attached to every outbound request body.
const Version = "1.3.0"

func origin() string {
	return "go-sdk@" + Version
}
