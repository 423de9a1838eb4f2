// Package research fetches tracked URLs and reduces their pages to readable
// text for the terminal and for model context.
package research
