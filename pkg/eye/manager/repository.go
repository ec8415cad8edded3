package manager

import "strings"

// Release is a repository of versioned prebuilt libs:
// <address>/<version>/<file>[.<compression>].
type Release struct {
	Address     string
	Version     string
	Compression string
}

func (r Release) Url(file string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSuffix(r.Address, "/") + "/")
	if r.Version != "" {
		sb.WriteString(r.Version + "/")
	}
	sb.WriteString(file)
	if r.Compression != "" {
		sb.WriteString("." + r.Compression)
	}
	return sb.String()
}
