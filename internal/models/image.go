package models

import "time"

type ImageCategory string

const (
	CategoryStreet ImageCategory = "street"
	CategoryNature ImageCategory = "nature"
)

type DisplaySection string

const (
	SectionHome    DisplaySection = "home"
	SectionGallery DisplaySection = "gallery"
	SectionAll     DisplaySection = "all"
)

type Image struct {
	ID             string
	Title          string
	OriginalName   string
	Category       ImageCategory
	DisplaySection DisplaySection
	Location       string
	Year           string
	Bucket         string
	ObjectKey      string
	ContentType    string
	Width          int
	Height         int
	SizeBytes      int64
	Views          int64
	UploadedAt     time.Time
}

func ValidCategory(c string) bool {
	switch ImageCategory(c) {
	case CategoryStreet, CategoryNature:
		return true
	}
	return false
}

func ValidSection(s string) bool {
	switch DisplaySection(s) {
	case SectionHome, SectionGallery, SectionAll:
		return true
	}
	return false
}
