package config

import (
	"fmt"
	"strconv"
	"time"
)

// Site holds the runtime-editable settings stored in site.yaml.
type Site struct {
	Name       string             `yaml:"name"`
	Articles   ArticleSettings    `yaml:"articles"`
	Newsletter NewsletterSnapshot `yaml:"newsletter"`
	Uploads    UploadSettings     `yaml:"uploads"`
	Admin      AdminSettings      `yaml:"admin"`
	UpdatedAt  int64              `yaml:"updated_at"`
}

type ArticleSettings struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	PopularTagCount int `yaml:"popular_tag_count"`
}

// NewsletterSnapshot is stamped onto a newsletter when it is sent.
type NewsletterSnapshot struct {
	Recipients int     `yaml:"recipients"`
	OpenRate   float64 `yaml:"open_rate"`
	ClickRate  float64 `yaml:"click_rate"`
}

type UploadSettings struct {
	MaxBytes       int64 `yaml:"max_bytes"`
	CoverMaxWidth  int   `yaml:"cover_max_width"`
	CoverMaxHeight int   `yaml:"cover_max_height"`
}

type AdminSettings struct {
	// DatabaseStatsInterval is a cron spec for refreshing table statistics.
	DatabaseStatsInterval string `yaml:"database_stats_interval"`
}

func DefaultSite() *Site {
	return &Site{
		Name: "InQuill",
		Articles: ArticleSettings{
			DefaultPageSize: 10,
			MaxPageSize:     100,
			PopularTagCount: 10,
		},
		Newsletter: NewsletterSnapshot{
			Recipients: 1250,
			OpenRate:   32.5,
			ClickRate:  4.8,
		},
		Uploads: UploadSettings{
			MaxBytes:       10 << 20,
			CoverMaxWidth:  1600,
			CoverMaxHeight: 900,
		},
		Admin: AdminSettings{
			DatabaseStatsInterval: "@every 5m",
		},
		UpdatedAt: time.Now().Unix(),
	}
}

// applyDefaults fills zero values left by a partial site.yaml.
func (s *Site) applyDefaults() {
	d := DefaultSite()
	if s.Name == "" {
		s.Name = d.Name
	}
	if s.Articles.DefaultPageSize <= 0 {
		s.Articles.DefaultPageSize = d.Articles.DefaultPageSize
	}
	if s.Articles.MaxPageSize <= 0 {
		s.Articles.MaxPageSize = d.Articles.MaxPageSize
	}
	if s.Articles.PopularTagCount <= 0 {
		s.Articles.PopularTagCount = d.Articles.PopularTagCount
	}
	if s.Uploads.MaxBytes <= 0 {
		s.Uploads.MaxBytes = d.Uploads.MaxBytes
	}
	if s.Uploads.CoverMaxWidth <= 0 {
		s.Uploads.CoverMaxWidth = d.Uploads.CoverMaxWidth
	}
	if s.Uploads.CoverMaxHeight <= 0 {
		s.Uploads.CoverMaxHeight = d.Uploads.CoverMaxHeight
	}
	if s.Admin.DatabaseStatsInterval == "" {
		s.Admin.DatabaseStatsInterval = d.Admin.DatabaseStatsInterval
	}
}

func (s *Site) Validate() error {
	if s.Articles.DefaultPageSize > s.Articles.MaxPageSize {
		return fmt.Errorf("articles.default_page_size (%d) exceeds max_page_size (%d)", s.Articles.DefaultPageSize, s.Articles.MaxPageSize)
	}
	if s.Newsletter.Recipients < 0 {
		return fmt.Errorf("newsletter.recipients must not be negative")
	}
	for name, rate := range map[string]float64{"open_rate": s.Newsletter.OpenRate, "click_rate": s.Newsletter.ClickRate} {
		if rate < 0 || rate > 100 {
			return fmt.Errorf("newsletter.%s must be between 0 and 100", name)
		}
	}
	return nil
}

// FormatRate renders a percentage the way newsletters expose it ("32.5%").
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}
