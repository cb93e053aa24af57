package protocol

import (
	"fmt"
	"net/url"
	"strings"
)

// Surface is a named log view a LogEvent is routed to.
type Surface int

const (
	SurfaceConsole Surface = iota
	SurfaceASR
	SurfaceCaller
	SurfaceScam
	SurfaceSLM
)

func (s Surface) String() string {
	switch s {
	case SurfaceASR:
		return "asr"
	case SurfaceCaller:
		return "caller"
	case SurfaceScam:
		return "scam"
	case SurfaceSLM:
		return "slm"
	default:
		return "console"
	}
}

// RouteLog maps a log step to its surface. Matching is case-insensitive; SYSTEM
// and unrecognised steps go to the console only.
func RouteLog(step string) Surface {
	switch strings.ToUpper(strings.TrimSpace(step)) {
	case "ASR", "PROCESS":
		return SurfaceASR
	case "CALLER":
		return SurfaceCaller
	case "BERT", "ALERT", "SCAM":
		return SurfaceScam
	case "SLM":
		return SurfaceSLM
	default:
		return SurfaceConsole
	}
}

// StreamURL derives the analysis WebSocket URL from the backend base URL. The
// scheme follows the page scheme: wss for https, ws otherwise.
func StreamURL(base string) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = AnalyzePath
	return u.String(), nil
}

// CheckURL derives the text-check endpoint from the backend base URL.
func CheckURL(base string) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	case "ws":
		u.Scheme = "http"
	}
	u.Path = CheckTextPath
	return u.String(), nil
}

func parseBase(base string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend URL: %v", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend URL %q has no host", base)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("backend URL %q: unsupported scheme %q", base, u.Scheme)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
