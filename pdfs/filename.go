package pdfs

import "regexp"

const (
	FilenamePrefix         = "ECG_"
	FilenameSuffix         = "_Specification"
	CompanyProfileFilename = "ECG_Company_Profile.pdf"
)

var sanitizeRe = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// Sanitize replaces every run of characters other than ASCII letters, digits and '-' with a single '_'
func Sanitize(name string) string {
	return sanitizeRe.ReplaceAllString(name, "_")
}

// RecordFilename is the download name of a record document
func RecordFilename(name string) string {
	return FilenamePrefix + Sanitize(name) + FilenameSuffix + ".pdf"
}
