package models

// DateRangeQuery carries the raw read-side filter parameters as received from the caller.
type DateRangeQuery struct {
	StartDate string `form:"start_date" json:"start_date"`
	EndDate   string `form:"end_date" json:"end_date"`
	FilterBy  string `form:"filter_by" json:"filter_by"`
	StartTime string `form:"start_time" json:"start_time"`
	EndTime   string `form:"end_time" json:"end_time"`
}

// FilterOption describes one accepted filter_by value.
type FilterOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// FilterInfo documents the date-range query parameters for API clients.
type FilterInfo struct {
	FilterTypes []FilterOption `json:"filter_types"`
	DateFormat  string         `json:"date_format"`
	TimeFormat  string         `json:"time_format"`
	Examples    []string       `json:"examples"`
	EditWindow  string         `json:"edit_window"`
	EditInfo    string         `json:"edit_info"`
}
