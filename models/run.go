package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogRun describes one category extraction.
type CatalogRun struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	URL        string             `json:"url" bson:"url"`
	Products   []ProductSummary   `json:"products" bson:"products"`
	OutputPath string             `json:"output_path" bson:"output_path"`
	Archived   map[string]string  `json:"archived,omitempty" bson:"archived,omitempty"` // local path -> S3 key
	StartedAt  time.Time          `json:"started_at" bson:"started_at"`
	FinishedAt time.Time          `json:"finished_at" bson:"finished_at"`
}

// ProductRun describes one product page extraction.
type ProductRun struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	URL            string             `json:"url" bson:"url"`
	Region         string             `json:"region" bson:"region"`
	Raw            RawDetail          `json:"raw" bson:"raw"`
	Detail         ProductDetail      `json:"detail" bson:"detail"`
	OutputPath     string             `json:"output_path" bson:"output_path"`
	ScreenshotPath string             `json:"screenshot_path" bson:"screenshot_path"`
	Archived       map[string]string  `json:"archived,omitempty" bson:"archived,omitempty"`
	StartedAt      time.Time          `json:"started_at" bson:"started_at"`
	FinishedAt     time.Time          `json:"finished_at" bson:"finished_at"`
}
