package constant

type RequestType string

const (
	RequestTypeReportSpan RequestType = "REPORT_SPAN"
)
