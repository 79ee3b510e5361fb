package domain

// AssetError pairs a failed asset with the error that killed it. Per-asset
// errors during extraction and ingestion are collected, never thrown
// (spec.md §7).
type AssetError struct {
	FileID string `json:"file_id"`
	Error  string `json:"error"`
}

// IngestResult is returned by the Ingestion Engine for one run.
type IngestResult struct {
	Processed     []string     `json:"processed"`
	ChunksCreated int          `json:"chunks_created"`
	Errors        []AssetError `json:"errors"`
}
