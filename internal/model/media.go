package model

import "time"

// MediaAsset is an image in the flat upload directory
type MediaAsset struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	SHA          string    `json:"sha"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url"`
}
