// Package siteconfig serves and persists the editable content of the
// portfolio site. Reads always produce a complete configuration, falling
// back to compiled-in defaults; writes surface every failure.
package siteconfig

import (
	"maps"
	"slices"
)

// Configuration is a flat key to string bag of site content.
type Configuration map[string]string

// defaultConfiguration is never handed out directly; see DefaultConfiguration.
var defaultConfiguration = Configuration{
	"site_title":           "My Portfolio",
	"site_subtitle":        "Engineer and builder",
	"site_favicon_url":     "/static/img/favicon.ico",
	"image_banner_url":     "/static/img/banner.jpg",
	"image_profile_url":    "/static/img/profile.jpg",
	"image_logo_url":       "/static/img/logo.png",
	"about_title":          "About Me",
	"about_subtitle":       "A little about who I am",
	"about_description":    "Add a short introduction from the admin panel.",
	"about_photo1_url":     "/static/img/about/photo1.jpg",
	"about_photo1_alt":     "About photo 1",
	"about_photo2_url":     "/static/img/about/photo2.jpg",
	"about_photo2_alt":     "About photo 2",
	"about_photo3_url":     "/static/img/about/photo3.jpg",
	"about_photo3_alt":     "About photo 3",
	"about_photo4_url":     "/static/img/about/photo4.jpg",
	"about_photo4_alt":     "About photo 4",
	"skills_title":         "Skills",
	"skills_description":   "Tools and technologies I work with.",
	"certifications_title": "Certifications",
	"experience_title":     "Work Experience",
	"contact_email":        "hello@example.com",
	"linkedin_url":         "https://www.linkedin.com/",
	"github_url":           "https://github.com/",
	"resume_url":           "/static/resume.pdf",
	"footer_text":          "Built with care.",
}

// DefaultConfiguration returns a fresh copy of the compiled-in defaults.
func DefaultConfiguration() Configuration {
	return maps.Clone(defaultConfiguration)
}

// DefaultKeys lists every key a complete configuration carries, sorted.
func DefaultKeys() []string {
	return slices.Sorted(maps.Keys(defaultConfiguration))
}

// Merge overlays stored values on the defaults. Stored values win per key;
// keys unknown to the defaults are kept.
func Merge(stored map[string]string) Configuration {
	out := DefaultConfiguration()
	for key, value := range stored {
		out[key] = value
	}
	return out
}

// Complete reports whether cfg carries every default key.
func (c Configuration) Complete() bool {
	for key := range defaultConfiguration {
		if _, ok := c[key]; !ok {
			return false
		}
	}
	return true
}
