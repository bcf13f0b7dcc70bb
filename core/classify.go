package core

import (
	"net/url"
	"strings"

	"github.com/huangsam/flowtrack/schema"
)

// categoryRule maps a set of domains to a category.
type categoryRule struct {
	category schema.Category
	domains  []string
}

// categoryRules are evaluated in order; the first match wins.
var categoryRules = []categoryRule{
	{
		category: schema.WorkCategory,
		domains: []string{
			"github.com",
			"gitlab.com",
			"bitbucket.org",
			"notion.so",
			"figma.com",
			"docs.google.com",
			"drive.google.com",
			"calendar.google.com",
			"developer.mozilla.org",
			"stackoverflow.com",
		},
	},
	{
		category: schema.CommunicationCategory,
		domains: []string{
			"mail.google.com",
			"gmail.com",
			"outlook.office.com",
			"discord.com",
			"slack.com",
			"teams.microsoft.com",
			"meet.google.com",
		},
	},
	{
		category: schema.LeisureCategory,
		domains: []string{
			"youtube.com",
			"youtu.be",
			"netflix.com",
			"reddit.com",
			"x.com",
			"twitter.com",
			"tiktok.com",
			"instagram.com",
			"twitch.tv",
		},
	},
}

// Hostname extracts the normalized hostname of rawURL: lower-cased, without
// port and without a leading "www.". It reports false when rawURL has no host.
func Hostname(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}
	return host, true
}

// Classify maps a URL to an activity category using ordered domain rules.
// Unparseable URLs and unlisted hosts are unknown.
func Classify(rawURL string) schema.Category {
	host, ok := Hostname(rawURL)
	if !ok {
		return schema.UnknownCategory
	}
	return ClassifyHost(host)
}

// ClassifyHost maps a normalized hostname to an activity category.
// A host matches a domain when it equals it or is a subdomain of it.
func ClassifyHost(host string) schema.Category {
	for _, rule := range categoryRules {
		for _, domain := range rule.domains {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return rule.category
			}
		}
	}
	return schema.UnknownCategory
}
