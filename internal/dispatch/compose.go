package dispatch

import (
	"net/url"
	"strings"
)

const (
	gmailComposeBase   = "https://mail.google.com/mail/?view=cm&fs=1"
	outlookComposeBase = "https://outlook.live.com/owa/?path=/mail/action/compose"
)

// Provider is a delivery channel
type Provider string

const (
	ProviderShare         Provider = "share"
	ProviderGmail         Provider = "gmail"
	ProviderOutlook       Provider = "outlook"
	ProviderInstitutional Provider = "institutional"
)

// IsValid reports whether p is a known provider
func (p Provider) IsValid() bool {
	switch p {
	case ProviderShare, ProviderGmail, ProviderOutlook, ProviderInstitutional:
		return true
	}
	return false
}

// IsWebMail reports whether p delivers through a compose URL
func (p Provider) IsWebMail() bool {
	return p == ProviderGmail || p == ProviderOutlook || p == ProviderInstitutional
}

// Message is the content of a pre-filled compose window
type Message struct {
	To      string
	Subject string
	Body    string
}

// ComposeURL builds the compose URL of a web-mail provider. institutionalBase replaces
// the Gmail base for the institutional provider when set.
func ComposeURL(p Provider, m Message, institutionalBase string) string {
	switch p {
	case ProviderOutlook:
		return outlookComposeBase +
			"&to=" + encodeComponent(m.To) +
			"&subject=" + encodeComponent(m.Subject) +
			"&body=" + encodeComponent(m.Body)
	case ProviderInstitutional:
		base := gmailComposeBase
		if institutionalBase != "" {
			base = institutionalBase
		}
		return gmailStyle(base, m)
	default:
		return gmailStyle(gmailComposeBase, m)
	}
}

func gmailStyle(base string, m Message) string {
	return base +
		"&to=" + encodeComponent(m.To) +
		"&su=" + encodeComponent(m.Subject) +
		"&body=" + encodeComponent(m.Body)
}

// encodeComponent percent-encodes s the way browsers encode a URI component
func encodeComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	// QueryEscape escapes characters encodeURIComponent leaves alone
	for _, r := range []struct{ from, to string }{
		{"%21", "!"}, {"%27", "'"}, {"%28", "("}, {"%29", ")"}, {"%2A", "*"},
	} {
		escaped = strings.ReplaceAll(escaped, r.from, r.to)
	}
	return escaped
}
