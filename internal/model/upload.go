package model

// RowError describes a CSV row that could not be imported.
// Row is 1-based and counts the header as row 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// BulkUploadResult summarises a bulk product upload.
type BulkUploadResult struct {
	Created int        `json:"created"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors"`
}

// ImportRequest asks the server to import a CSV from a configured source.
type ImportRequest struct {
	Key string `json:"key"`
}
