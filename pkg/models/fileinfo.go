package models

import "time"

// FileCategory classifies a source file for analysis purposes.
type FileCategory string

const (
	CategoryComponent  FileCategory = "component"
	CategoryAPIRoute   FileCategory = "api-route"
	CategoryService    FileCategory = "service"
	CategoryType       FileCategory = "type"
	CategoryUtil       FileCategory = "util"
	CategoryMiddleware FileCategory = "middleware"
	CategoryConfig     FileCategory = "config"
	CategoryTest       FileCategory = "test"
	CategoryOther      FileCategory = "other"
)

// FileCategories lists every category in classification priority order.
var FileCategories = []FileCategory{
	CategoryTest,
	CategoryType,
	CategoryAPIRoute,
	CategoryComponent,
	CategoryService,
	CategoryMiddleware,
	CategoryConfig,
	CategoryUtil,
	CategoryOther,
}

// FileInfo describes a file handed to an analyzer.
type FileInfo struct {
	Path         string       `json:"path"`          // Absolute path
	RelativePath string       `json:"relative_path"` // Relative to the analysis root
	Extension    string       `json:"extension"`     // ".ts", ".tsx", ...
	Size         int64        `json:"size"`
	Category     FileCategory `json:"category"`
	LastModified time.Time    `json:"last_modified"`
}

// DisplayPath returns the relative path when known, otherwise the path.
func (f FileInfo) DisplayPath() string {
	if f.RelativePath != "" {
		return f.RelativePath
	}
	return f.Path
}
