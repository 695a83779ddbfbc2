package common

import (
	"github.com/google/uuid"
)

// NewAssetID generates a unique asset ID with the "asset_" prefix
// Format: asset_<uuid>
func NewAssetID() string {
	return "asset_" + uuid.New().String()
}

// NewRunID generates a unique insight run ID with the "run_" prefix
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}
