// Package discovery finds candidate career-page links on a site's landing
// page, retrying with translated keywords when English ones find nothing.
package discovery
